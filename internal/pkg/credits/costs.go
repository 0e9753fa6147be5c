package credits

import (
	"strconv"

	"github.com/alexfalanx/wevibecode/internal/pkg/env"
)

// Credit costs per metered action. A plain generation burns the base cost;
// requesting stock imagery adds the image surcharge on top.
const (
	CostGenerateBase = 1
	CostStockImages  = 3
	CostRegenerate   = 1
)

const defaultSignupGrant = 5

// GenerationCost returns the total cost of one website generation.
func GenerationCost(withImages bool) int {
	cost := CostGenerateBase
	if withImages {
		cost += CostStockImages
	}
	return cost
}

// SignupGrant returns the free credit allowance for new accounts.
func SignupGrant() int {
	raw := env.GetEnv("SIGNUP_CREDITS", "")
	if raw == "" {
		return defaultSignupGrant
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return defaultSignupGrant
	}
	return n
}
