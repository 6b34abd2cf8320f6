package parser

import "fmt"

// SyntaxError implements diagnostic.Kind for every parser-stage
// failure (kept from the teacher's SyntaxError, generalized with a
// Code tag per the "ExpectedX per grammar slot" taxonomy instead of a
// single free-form message).
type SyntaxError struct {
	Code_   string
	Message string
}

func CreateSyntaxError(code, message string) SyntaxError {
	return SyntaxError{Code_: code, Message: message}
}

func (e SyntaxError) Error() string { return fmt.Sprintf("💥 syntax error: %s", e.Message) }
func (e SyntaxError) Stage() string { return "parser" }
func (e SyntaxError) Code() string  { return e.Code_ }
