package serverutils

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func JwtMiddleware(ctx *fiber.Ctx) error {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Missing token"})
	}
	tokenStr := authHeader[7:]

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	})

	if err != nil || !token.Valid {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid claims"})
	}

	ctx.Locals("user_id", claims["user_id"])
	ctx.Locals("allowed_domains", AllowedDomainsFromClaims(claims))
	return ctx.Next()
}

// AllowedDomainsFromClaims extracts the domain whitelist from the token.
// A token without the claim yields an empty list, which downstream treats
// as "no domain access" rather than "all domains".
func AllowedDomainsFromClaims(claims jwt.MapClaims) []string {
	raw, ok := claims["allowed_domains"].([]interface{})
	if !ok {
		return []string{}
	}

	domains := make([]string, 0, len(raw))
	for _, d := range raw {
		if s, ok := d.(string); ok {
			domains = append(domains, s)
		}
	}
	return domains
}
