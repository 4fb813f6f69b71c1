package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sohojbiniyog/biniyog/internal/pkg/session"
	"github.com/sohojbiniyog/biniyog/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the user context for every request from the
// session established by the external account service. Anonymous requests get
// a default context.
func UserContextMiddleware(c *fiber.Ctx) error {
	store := session.GetSessionStore()
	if store == nil {
		c.Locals(usercontext.KeyUserContext, usercontext.UserContext{IsLoggedIn: false})
		return c.Next()
	}

	sess, err := store.Get(c)
	if err != nil {
		c.Locals(usercontext.KeyUserContext, usercontext.UserContext{IsLoggedIn: false})
		return c.Next()
	}

	rawID := sess.Get(usercontext.KeyUserID)
	if rawID == nil {
		c.Locals(usercontext.KeyUserContext, usercontext.UserContext{IsLoggedIn: false})
		return c.Next()
	}

	userID := uint(0)
	switch v := rawID.(type) {
	case uint:
		userID = v
	case int:
		userID = uint(v)
	case string:
		if parsed, err := strconv.ParseUint(v, 10, 32); err == nil {
			userID = uint(parsed)
		}
	}
	if userID == 0 {
		c.Locals(usercontext.KeyUserContext, usercontext.UserContext{IsLoggedIn: false})
		return c.Next()
	}

	c.Locals(usercontext.KeyUserContext, usercontext.UserContext{
		UserID:     userID,
		Username:   session.GetSessionValue(c, usercontext.KeyUsername),
		Role:       session.GetSessionValue(c, usercontext.KeyUserRole),
		IsLoggedIn: true,
	})
	return c.Next()
}
