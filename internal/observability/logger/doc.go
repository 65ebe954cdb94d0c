// Package logger provee un logger Zap singleton con scoping por contexto.
//
// # Decisiones
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Scoping: cada request lleva su logger con request_id, method y path
//     (lo inyecta middlewares.WithLogging) sin crear un core nuevo.
//   - Entornos: "dev" usa consola con colores, "prod" JSON, "test" descarta todo.
//
// # Uso
//
// En main.go:
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "weatherjohn"})
//	defer logger.Sync()
//
// En controllers/services:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Forecast"))
//	log.Info("weather fetched", logger.Lat(lat), logger.Lng(lng))
package logger
