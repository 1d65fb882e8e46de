package server

import (
	"fmt"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Flash categories, used as CSS classes by the templates.
const (
	CategorySuccess = "success"
	CategoryDanger  = "danger"
)

// flashCategories is the order notices are shown in.
var flashCategories = []string{CategoryDanger, CategorySuccess}

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

// addFlash queues message under category and saves the session.
func addFlash(c *gin.Context, category, message string) error {
	session := sessions.Default(c)
	session.AddFlash(message, category)
	if err := session.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// popFlashes returns and clears every pending notice.
// It must run before the response body is written so the cleared cookie is sent.
func popFlashes(c *gin.Context) ([]Flash, error) {
	session := sessions.Default(c)

	var flashes []Flash
	for _, category := range flashCategories {
		for _, v := range session.Flashes(category) {
			if msg, ok := v.(string); ok {
				flashes = append(flashes, Flash{Category: category, Message: msg})
			}
		}
	}
	if len(flashes) == 0 {
		return nil, nil
	}

	if err := session.Save(); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return flashes, nil
}
