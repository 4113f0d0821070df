package middleware

import (
	"diagram-hub/internal/schemas"
	"diagram-hub/internal/utils"

	"github.com/gin-gonic/gin"
)

// ValidateAndSanitizeStruct binds the JSON body into a fresh T, strips markup from its strings
// and validates it. The result is stored on the context, see Payload.
func ValidateAndSanitizeStruct[T any]() gin.HandlerFunc {
	return func(c *gin.Context) {
		obj := new(T)
		if err := c.ShouldBindJSON(obj); err != nil {
			utils.WriteAndLogError(c, schemas.NewBadRequest(schemas.BadRequestMessage).WithCause(err))
			return
		}
		sanitizeAndValidate(c, obj)
	}
}

// ValidateAndSanitizeQuery does the same for query parameters.
func ValidateAndSanitizeQuery[T any]() gin.HandlerFunc {
	return func(c *gin.Context) {
		obj := new(T)
		if err := c.ShouldBindQuery(obj); err != nil {
			utils.WriteAndLogError(c, schemas.NewBadRequest(schemas.BadRequestMessage).WithCause(err))
			return
		}
		sanitizeAndValidate(c, obj)
	}
}

func sanitizeAndValidate(c *gin.Context, obj interface{}) {
	validator := utils.GetValidator()
	// Sanitize the data
	if err := validator.SanitizeData(obj); err != nil {
		utils.WriteAndLogError(c, schemas.NewBadRequest(schemas.BadRequestMessage).WithCause(err))
		return
	}

	if err := validator.ValidateStruct(obj); err != nil {
		utils.WriteAndLogError(c, err)
		return
	}
	// Set the sanitized object in the context
	c.Set(utils.SanitizedPayloadKey.String(), obj)
	c.Next()
}

// Payload returns the object stored by ValidateAndSanitizeStruct or ValidateAndSanitizeQuery.
func Payload[T any](c *gin.Context) *T {
	value, ok := c.Get(utils.SanitizedPayloadKey.String())
	if !ok {
		return new(T)
	}
	obj, ok := value.(*T)
	if !ok {
		return new(T)
	}
	return obj
}
