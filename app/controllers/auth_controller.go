package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/alexfalanx/wevibecode/app/models"
	"github.com/alexfalanx/wevibecode/app/repository"
	"github.com/alexfalanx/wevibecode/internal/pkg/credits"
	"github.com/alexfalanx/wevibecode/internal/pkg/database"
	"github.com/alexfalanx/wevibecode/internal/pkg/hcaptcha"
	"github.com/alexfalanx/wevibecode/internal/pkg/mail"
	"github.com/alexfalanx/wevibecode/internal/pkg/session"
	"github.com/alexfalanx/wevibecode/internal/pkg/usercontext"
)

func HandleLoginPage(c *fiber.Ctx) error {
	if isLoggedIn(c) {
		return c.Redirect(localePath(c, "/dashboard"))
	}
	return renderPage(c, "login", fiber.Map{
		"Title": "Login",
		"Flash": flash.Get(c),
	})
}

func HandleAuthLogin(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type": "error",
	}

	// notice: in production you should not inform the user
	// with detailed messages about login failures
	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(c.FormValue("email"))
	if err != nil {
		fm["message"] = "There is a problem with the login process"

		return flash.WithError(c, fm).Redirect("/en/login")
	}

	if !models.CheckPasswordHash(c.FormValue("password"), user.Password) {
		fm["message"] = "There is a problem with the login process"

		return flash.WithError(c, fm).Redirect("/en/login")
	}

	if !user.IsActive() {
		fm["message"] = "Please activate your account first"

		return flash.WithError(c, fm).Redirect("/en/login")
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/en/login")
	}

	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyUsername, user.Name)
	sess.Set(usercontext.KeyIsAdmin, user.Role == models.ROLE_ADMIN)

	if err = sess.Save(); err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/en/login")
	}

	database.GetDB().Model(user).Update("last_login_at", time.Now())

	fm = fiber.Map{
		"type":    "success",
		"message": "Welcome back!",
	}
	return flash.WithSuccess(c, fm).Redirect(dashboardRedirect(user.ID))
}

func HandleRegisterPage(c *fiber.Ctx) error {
	if isLoggedIn(c) {
		return c.Redirect(localePath(c, "/dashboard"))
	}
	return renderPage(c, "register", fiber.Map{
		"Title":          "Create account",
		"Flash":          flash.Get(c),
		"CaptchaSiteKey": hcaptcha.SiteKey(),
	})
}

func HandleAuthRegister(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type": "error",
	}

	if hcaptcha.IsEnabled() {
		ok, err := hcaptcha.Verify(c.FormValue("h-captcha-response"))
		if err != nil || !ok {
			fm["message"] = "Captcha verification failed"

			return flash.WithError(c, fm).Redirect("/en/register")
		}
	}

	user, err := models.CreateUser(
		c.FormValue("name"),
		c.FormValue("email"),
		c.FormValue("password"),
	)
	if err != nil {
		fm["message"] = err.Error()

		return flash.WithError(c, fm).Redirect("/en/register")
	}
	if err := user.GenerateActivationToken(); err != nil {
		fm["message"] = "Registration failed, please try again"

		return flash.WithError(c, fm).Redirect("/en/register")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if err := repo.Create(user); err != nil {
		fm["message"] = "An account with this email may already exist"

		return flash.WithError(c, fm).Redirect("/en/register")
	}

	// Signup credits land before the first login so the balance is visible
	// right after activation.
	ledger := credits.NewLedgerFromDB(database.GetDB())
	if err := ledger.Grant(c.Context(), user.ID, models.CreditActionSignupBonus, credits.SignupGrant(), "signup bonus"); err != nil {
		log.Errorf("failed to grant signup credits to user %d: %v", user.ID, err)
	}

	if err := mail.SendActivationMail(user.Email, user.Name, user.ActivationToken); err != nil {
		log.Errorf("failed to send activation mail to %s: %v", user.Email, err)
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "Account created. Check your inbox for the activation link.",
	}
	return flash.WithSuccess(c, fm).Redirect("/en/login")
}

func HandleActivate(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type": "error",
	}

	token := c.Query("token")
	if token == "" {
		fm["message"] = "Missing activation token"

		return flash.WithError(c, fm).Redirect("/en/login")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByActivationToken(token)
	if err != nil {
		fm["message"] = "Invalid or expired activation token"

		return flash.WithError(c, fm).Redirect("/en/login")
	}

	user.Status = models.STATUS_ACTIVE
	user.ActivationToken = ""
	if err := repo.Update(user); err != nil {
		fm["message"] = "Activation failed, please try again"

		return flash.WithError(c, fm).Redirect("/en/login")
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "Account activated. You can log in now.",
	}
	return flash.WithSuccess(c, fm).Redirect("/en/login")
}

func HandleAuthLogout(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type": "error",
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		fm["message"] = "logged out (no sess)"

		return flash.WithError(c, fm).Redirect("/en/login")
	}

	if err = sess.Destroy(); err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/en/login")
	}

	c.Locals(usercontext.KeyFromProtected, false)

	fm = fiber.Map{
		"type":    "success",
		"message": "See you soon!",
	}
	return flash.WithSuccess(c, fm).Redirect("/en/")
}

func dashboardRedirect(userID uint) string {
	// Stored language preference wins over the default for the post-login
	// landing page.
	if db := database.GetDB(); db != nil {
		if us, err := models.GetOrCreateUserSettings(db, userID); err == nil && us.HasPreferredLanguage() {
			return "/" + us.PreferredLanguage + "/dashboard"
		}
	}
	return "/en/dashboard"
}
