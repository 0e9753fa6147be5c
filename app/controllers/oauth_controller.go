package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/alexfalanx/wevibecode/app/models"
	"github.com/alexfalanx/wevibecode/app/repository"
	"github.com/alexfalanx/wevibecode/internal/pkg/credits"
	"github.com/alexfalanx/wevibecode/internal/pkg/database"
	"github.com/alexfalanx/wevibecode/internal/pkg/session"
	"github.com/alexfalanx/wevibecode/internal/pkg/usercontext"
)

// HandleOAuthStart begins the provider flow
func HandleOAuthStart(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleOAuthCallback completes the provider flow and logs the user in
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}

	db := database.GetDB()
	userRepo := repository.GetGlobalFactory().GetUserRepository()

	pa, err := userRepo.GetProviderAccount(u.Provider, u.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("db error: %v", err))
	}

	var appUser models.User
	if pa == nil {
		// Optional email match if provided
		if u.Email != "" {
			_ = db.Where("email = ?", u.Email).First(&appUser).Error
		}
		isNewUser := appUser.ID == 0
		if isNewUser {
			// Password is a random placeholder, OAuth accounts never use it
			placeholder := fmt.Sprintf("oauth_%d", time.Now().UnixNano())
			hash, _ := models.HashPassword(placeholder)
			email := u.Email
			if email == "" {
				// Ensure unique, non-empty email to satisfy unique index semantics in MySQL
				email = fmt.Sprintf("%s_%s@%s.oauth.local", u.Provider, u.UserID, u.Provider)
			}
			appUser = models.User{
				Name:      firstNonEmpty(u.Name, u.NickName, u.Email, "User"),
				Email:     email,
				Password:  hash,
				AvatarURL: u.AvatarURL,
				Status:    models.STATUS_ACTIVE,
			}
			if err := userRepo.Create(&appUser); err != nil {
				return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("create user failed: %v", err))
			}

			ledger := credits.NewLedgerFromDB(db)
			if err := ledger.Grant(c.Context(), appUser.ID, models.CreditActionSignupBonus, credits.SignupGrant(), "signup bonus"); err != nil {
				log.Errorf("failed to grant signup credits to user %d: %v", appUser.ID, err)
			}
		}

		var exp *time.Time
		if !u.ExpiresAt.IsZero() {
			t := u.ExpiresAt
			exp = &t
		}
		if err := userRepo.LinkProviderAccount(&models.ProviderAccount{
			UserID:         appUser.ID,
			Provider:       u.Provider,
			ProviderUserID: u.UserID,
			AccessToken:    u.AccessToken,
			RefreshToken:   u.RefreshToken,
			ExpiresAt:      exp,
		}); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("link provider failed: %v", err))
		}
	} else {
		// Update tokens
		pa.AccessToken = u.AccessToken
		pa.RefreshToken = u.RefreshToken
		if !u.ExpiresAt.IsZero() {
			t := u.ExpiresAt
			pa.ExpiresAt = &t
		} else {
			pa.ExpiresAt = nil
		}
		if err := db.Save(pa).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("update tokens failed: %v", err))
		}
		loaded, err := userRepo.GetByID(pa.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusInternalServerError).SendString("linked user not found")
			}
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("db error: %v", err))
		}
		appUser = *loaded
	}

	// Create app session
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session init failed")
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, appUser.ID)
	sess.Set(usercontext.KeyUsername, appUser.Name)
	sess.Set(usercontext.KeyIsAdmin, appUser.Role == models.ROLE_ADMIN)
	if err := sess.Save(); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session save failed")
	}

	// Cache plan and language for navbar and locale resolution
	target := "/en/dashboard"
	if us, err := models.GetOrCreateUserSettings(db, appUser.ID); err == nil && us != nil {
		plan := us.Plan
		if plan == "" {
			plan = "free"
		}
		_ = session.SetSessionValue(c, usercontext.KeyUserPlan, plan)
		if us.HasPreferredLanguage() {
			_ = session.SetSessionValue(c, usercontext.KeyUserLanguage, us.PreferredLanguage)
			target = "/" + us.PreferredLanguage + "/dashboard"
		}
	}

	_ = db.Model(&appUser).UpdateColumn("last_login_at", time.Now()).Error

	return c.Redirect(target, fiber.StatusSeeOther)
}

// HandleOAuthLogout clears the provider session cookie
func HandleOAuthLogout(c *fiber.Ctx) error {
	if err := gothfiber.Logout(c); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("logout failed")
	}
	return c.Redirect("/en/", fiber.StatusSeeOther)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
