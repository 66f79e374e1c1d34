package lib

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/talent-nest-network/src/apperr"
	"github.com/theleywin/talent-nest-network/src/store"
)

var validate = validator.New()

// Returns a map with a message key for API responses
func MessageResponse(message string) fiber.Map {
	return fiber.Map{
		"message": message,
	}
}

// ParseObjectID reads a route param that must hold a 24-hex id.
func ParseObjectID(c *fiber.Ctx, param string) (string, error) {
	id := c.Params(param)
	if err := validate.Var(id, "required,mongodb"); err != nil {
		return "", apperr.Validation("Invalid " + param)
	}
	return id, nil
}

// Validate runs struct validation and reports the first failing field.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return apperr.Validation(f.Field() + " failed " + f.Tag() + " validation")
	}
	return apperr.Validation("Invalid request")
}

// PageQuery is the page/limit query string.
type PageQuery struct {
	Page  int `query:"page" validate:"gte=0,lte=1000000"`
	Limit int `query:"limit" validate:"gte=0"`
}

// ParsePage reads ?page=&limit=, applying the default size and capping at max.
func ParsePage(c *fiber.Ctx, defaultSize, maxSize int) (store.Page, error) {
	var q PageQuery
	if err := c.QueryParser(&q); err != nil {
		return store.Page{}, apperr.Validation("Invalid page or limit")
	}
	if err := Validate(q); err != nil {
		return store.Page{}, err
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = defaultSize
	}
	if q.Limit > maxSize {
		q.Limit = maxSize
	}
	return store.Page{Page: q.Page, Limit: q.Limit}, nil
}
