package importer

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/mdrzasync/internal/models"
	"github.com/dmitrijs2005/mdrzasync/internal/repositories/staging"
)

// Kind selects the record variant of an export file.
type Kind int

const (
	KindUnknown Kind = iota
	KindTrip
	KindUsername
	KindPassword
)

// File name prefixes of the exported cubes.
const (
	PrefixTrip     = "Cube_AnzahlGefahreneKmJeTag"
	PrefixPassword = "Cube_MdRzA_Kennwort"
	PrefixUsername = "Cube_MdRzA_Login"
)

const exportDateLayout = "20060102"

func (k Kind) String() string {
	switch k {
	case KindTrip:
		return "trip"
	case KindUsername:
		return "username"
	case KindPassword:
		return "password"
	}
	return "unknown"
}

// Classify maps a file name to its record kind.
func Classify(name string) Kind {
	switch {
	case strings.HasPrefix(name, PrefixTrip):
		return KindTrip
	case strings.HasPrefix(name, PrefixPassword):
		return KindPassword
	case strings.HasPrefix(name, PrefixUsername):
		return KindUsername
	}
	return KindUnknown
}

// Record is one parsed data row. Only the three variants below exist.
type Record interface {
	Kind() Kind
	stage(ctx context.Context, repo staging.Repository) error
}

// TripRecord: TripDate(YYYYMMDD), InternalUsername, kilometers.
type TripRecord struct {
	models.StagedTrip
}

// UsernameRecord: InternalUsername, PortalUsername.
type UsernameRecord struct {
	models.StagedUsername
}

// PasswordRecord: InternalUsername, EncryptedPassword.
type PasswordRecord struct {
	models.StagedPassword
}

func (TripRecord) Kind() Kind     { return KindTrip }
func (UsernameRecord) Kind() Kind { return KindUsername }
func (PasswordRecord) Kind() Kind { return KindPassword }

func (r TripRecord) stage(ctx context.Context, repo staging.Repository) error {
	return repo.StageTrip(ctx, r.StagedTrip)
}

func (r UsernameRecord) stage(ctx context.Context, repo staging.Repository) error {
	return repo.StageUsername(ctx, r.StagedUsername)
}

func (r PasswordRecord) stage(ctx context.Context, repo staging.Repository) error {
	return repo.StagePassword(ctx, r.StagedPassword)
}

// ParseRow turns the fields of one data row into the record variant for kind.
func ParseRow(kind Kind, fields []string) (Record, error) {
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	switch kind {
	case KindTrip:
		if err := expectColumns(fields, "TripDate", "InternalUsername", "kilometers"); err != nil {
			return nil, err
		}
		day, err := NormalizeDate(fields[0])
		if err != nil {
			return nil, err
		}
		km, err := parseKilometers(fields[2])
		if err != nil {
			return nil, err
		}
		return TripRecord{models.StagedTrip{InternalUser: fields[1], TripDate: day, Kilometers: km}}, nil

	case KindUsername:
		if err := expectColumns(fields, "InternalUsername", "PortalUsername"); err != nil {
			return nil, err
		}
		return UsernameRecord{models.StagedUsername{InternalUser: fields[0], PortalUsername: fields[1]}}, nil

	case KindPassword:
		if err := expectColumns(fields, "InternalUsername", "EncryptedPassword"); err != nil {
			return nil, err
		}
		return PasswordRecord{models.StagedPassword{InternalUser: fields[0], EncryptedPassword: fields[1]}}, nil
	}

	return nil, fmt.Errorf("unsupported record kind %s", kind)
}

func expectColumns(fields []string, names ...string) error {
	if len(fields) != len(names) {
		return fmt.Errorf("expected %d columns (%s), got %d", len(names), strings.Join(names, ", "), len(fields))
	}
	for i, name := range names {
		if fields[i] == "" {
			return fmt.Errorf("column %s is empty", name)
		}
	}
	return nil
}

// NormalizeDate converts an 8-digit YYYYMMDD value to YYYY-MM-DD.
func NormalizeDate(s string) (string, error) {
	if len(s) != len(exportDateLayout) {
		return "", fmt.Errorf("date %q is not in YYYYMMDD form", s)
	}
	t, err := time.Parse(exportDateLayout, s)
	if err != nil {
		return "", fmt.Errorf("date %q: %w", s, err)
	}
	return t.Format(models.DateLayout), nil
}

func parseKilometers(s string) (float64, error) {
	km, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("kilometers %q: %w", s, err)
	}
	if math.IsNaN(km) || math.IsInf(km, 0) {
		return 0, fmt.Errorf("kilometers %q is not a finite number", s)
	}
	return km, nil
}
