package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	return e
}

func itoa(id int32) string {
	return strconv.FormatInt(int64(id), 10)
}
