package handler

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const maxSourcePathLength = 512

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("sourcepath", validSourcePath)
	}
}

// validSourcePath accepts dotted extraction paths: one or more non-blank
// segments separated by single dots.
func validSourcePath(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if path == "" || len(path) > maxSourcePathLength {
		return false
	}
	for _, segment := range strings.Split(path, ".") {
		if strings.TrimSpace(segment) == "" {
			return false
		}
	}
	return true
}
