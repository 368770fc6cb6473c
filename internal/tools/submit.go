package tools

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/mdrzasync/internal/models"
	"github.com/dmitrijs2005/mdrzasync/internal/portal"
)

// SubmitOne logs in and submits a single distance entry, without touching
// the local store. It returns the participant id the portal reported.
func SubmitOne(ctx context.Context, c *portal.Client, username, password, day string, km float64) (string, error) {
	if _, err := time.Parse(models.DateLayout, day); err != nil {
		return "", fmt.Errorf("day %q: expected YYYY-MM-DD", day)
	}
	if km < 0 || math.IsNaN(km) || math.IsInf(km, 0) {
		return "", fmt.Errorf("kilometers %v: must be a non-negative number", km)
	}

	sess, page, err := c.Login(ctx, username, password)
	if err != nil {
		return "", err
	}
	pid, err := page.ParticipantID()
	if err != nil {
		return "", err
	}
	token, err := page.CSRFToken()
	if err != nil {
		return "", err
	}

	if _, err := sess.Submit(ctx, portal.Entry{Day: day, Kilometers: km, ParticipantID: pid}, token); err != nil {
		return pid, err
	}
	return pid, nil
}
