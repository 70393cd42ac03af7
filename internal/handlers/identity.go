package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// parseUserID reads the numeric user id that AuthRequired stored on the
// request.
func parseUserID(c *fiber.Ctx) (int64, error) {
	userIDValue := c.Locals("user_id")
	userIDStr, ok := userIDValue.(string)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(userIDStr, 10, 64)
}

func userIDString(c *fiber.Ctx) (string, bool) {
	userID, err := parseUserID(c)
	if err != nil || userID <= 0 {
		return "", false
	}
	return strconv.FormatInt(userID, 10), true
}
