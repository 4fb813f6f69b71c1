package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sohojbiniyog/biniyog/internal/pkg/usercontext"
)

// RequireAuth ensures a logged-in web session; redirects to /login if missing.
func RequireAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireBusiness ensures a logged-in session acting as a business owner.
func RequireBusiness(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	if !usercontext.IsBusiness(c) {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireInvestor ensures a logged-in session that is not a business owner.
// Business owners browse campaigns but cannot invest in them.
func RequireInvestor(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	if usercontext.IsBusiness(c) {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return c.Next()
}
