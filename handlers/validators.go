package handlers

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by request structs.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("notfuture", notFuture)
	})
}

// notFuture accepts dates (string in dateLayout or time.Time) that are not after today.
func notFuture(fl validator.FieldLevel) bool {
	var t time.Time
	switch v := fl.Field().Interface().(type) {
	case string:
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			return false
		}
		t = parsed
	case time.Time:
		t = v
	default:
		return false
	}

	return !t.After(time.Now().UTC())
}
