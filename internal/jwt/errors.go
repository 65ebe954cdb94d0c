package jwt

import "errors"

// ConfigurationError indica que la identidad configurada no permite emitir la credencial.
// Field es el nombre del valor faltante o inválido (private_key, app_id, team_id, key_id).
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := "weatherkit credential: " + e.Field + " " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap expone la causa (por ejemplo el error de x509 al parsear la clave).
func (e *ConfigurationError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrMissingAppID) aunque err tenga causa propia.
func (e *ConfigurationError) Is(target error) bool {
	t, ok := target.(*ConfigurationError)
	if !ok {
		return false
	}
	return e.Field == t.Field && e.Reason == t.Reason
}

// Errores de configuración, uno por valor requerido.
var (
	ErrMissingPrivateKey = &ConfigurationError{Field: "private_key", Reason: "is not defined"}
	ErrMissingAppID      = &ConfigurationError{Field: "app_id", Reason: "is not defined"}
	ErrMissingTeamID     = &ConfigurationError{Field: "team_id", Reason: "is not defined"}
	ErrMissingKeyID      = &ConfigurationError{Field: "key_id", Reason: "is not defined"}
	ErrInvalidPrivateKey = &ConfigurationError{Field: "private_key", Reason: "is invalid"}
)

// IsConfigurationError reporta si err (o alguna causa) es un *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

func invalidKey(cause error) error {
	return &ConfigurationError{Field: "private_key", Reason: "is invalid", Err: cause}
}
