package validation

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
)

// BindAndValidate binds JSON body into `out` and runs validation.
// If validation fails, it writes a 400 response and returns an error for the handler to short-circuit.
func BindAndValidate(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid_request_body",
			"msg":   err.Error(),
		})
		return err
	}

	if err := Check(v, out); err != nil {
		WriteError(c, err)
		return err
	}
	return nil
}

// WriteError writes a 400 with field details for *Error values.
func WriteError(c *gin.Context, err error) {
	if ve, ok := err.(*Error); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation_failed",
			"fields": ve.Fields,
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "msg": err.Error()})
}
