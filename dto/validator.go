package dto

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var (
	challengeIDRegex = regexp.MustCompile(`^[0-9a-f]{64}$`)
	accessTokenRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{43}$`)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("challenge_id", validateChallengeID)
	validate.RegisterValidation("access_token", validateAccessToken)
}

func GetValidator() *validator.Validate {
	return validate
}

// IsChallengeID matches the 256-bit lowercase hex ids minted by the challenge issuer.
func IsChallengeID(value string) bool {
	return challengeIDRegex.MatchString(value)
}

// IsAccessToken matches a raw-url base64 encoding of 32 random bytes.
func IsAccessToken(value string) bool {
	return accessTokenRegex.MatchString(value)
}

func validateChallengeID(fl validator.FieldLevel) bool {
	return IsChallengeID(fl.Field().String())
}

func validateAccessToken(fl validator.FieldLevel) bool {
	return IsAccessToken(fl.Field().String())
}

func FormatValidationErrors(err error) []ValidationError {
	var errors []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			var message string

			switch fieldError.Tag() {
			case "required":
				message = fieldError.Field() + " is required"
			case "required_with":
				message = fieldError.Field() + " is required when " + fieldError.Param() + " is set"
			case "max":
				message = fieldError.Field() + " must be at most " + fieldError.Param() + " characters"
			case "ip":
				message = fieldError.Field() + " must be a valid IP address"
			case "challenge_id":
				message = fieldError.Field() + " is not a valid challenge id"
			case "access_token":
				message = fieldError.Field() + " is not a valid access token"
			default:
				message = fieldError.Field() + " is invalid"
			}

			errors = append(errors, ValidationError{
				Field:   fieldError.Field(),
				Message: message,
			})
		}
	}

	return errors
}

type Validator interface {
	Validate() error
}

func CreateValidationErrorResponse(err error) ValidationErrorResponse {
	return ValidationErrorResponse{
		Code:    400,
		Message: "Validation failed",
		Errors:  FormatValidationErrors(err),
	}
}
