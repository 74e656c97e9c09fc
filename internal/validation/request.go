package validation

import (
	"fmt"
	"strings"
)

const (
	maxNameLength    = 120
	maxEmailLength   = 254
	maxMessageLength = 2000
)

// ValidateRequestName checks the visitor-supplied name of an access request.
func ValidateRequestName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("nombre requerido")
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("nombre demasiado largo")
	}
	return nil
}

// ValidateEmail performs the same syntactic check the access service applies:
// exactly one @, a non-empty local part, and a dotted domain of 3+ characters.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > maxEmailLength {
		return fmt.Errorf("correo inválido")
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("correo inválido")
	}
	if len(parts[0]) < 1 || len(parts[1]) < 3 || !strings.Contains(parts[1], ".") {
		return fmt.Errorf("correo inválido")
	}
	return nil
}

// ValidateMessage bounds the optional free-text message.
func ValidateMessage(message string) error {
	if len(message) > maxMessageLength {
		return fmt.Errorf("mensaje demasiado largo")
	}
	return nil
}
