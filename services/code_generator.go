package services

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/tablereserve/reservation-app/models"
	"github.com/tablereserve/reservation-app/utils"
	"gorm.io/gorm"
)

const (
	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	CodeLength      = 6
	maxCodeAttempts = 10
)

// CodeLookup reports whether a reservation already uses code.
type CodeLookup interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

type CodeGenerator struct {
	lookup CodeLookup
	intn   func(n int) int
}

func NewCodeGenerator(lookup CodeLookup) *CodeGenerator {
	return &CodeGenerator{lookup: lookup, intn: rand.IntN}
}

// Generate draws random codes until one is unused, giving up after ten
// collisions and returning the last draw. The unique index on
// reservations.code rejects a duplicate that slips through.
func (g *CodeGenerator) Generate(ctx context.Context) string {
	code := g.randomCode()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		exists, err := g.lookup.CodeExists(ctx, code)
		if err != nil {
			utils.ErrorLogger.Printf("Code lookup failed, keeping %s: %v", code, err)
			return code
		}
		if !exists {
			return code
		}
		code = g.randomCode()
	}
	utils.ErrorLogger.Printf("Code generation still colliding after %d attempts, using %s", maxCodeAttempts, code)
	return code
}

func (g *CodeGenerator) randomCode() string {
	var b strings.Builder
	b.Grow(CodeLength)
	for i := 0; i < CodeLength; i++ {
		b.WriteByte(codeAlphabet[g.intn(len(codeAlphabet))])
	}
	return b.String()
}

// GormCodeLookup checks codes against the reservations table.
type GormCodeLookup struct {
	DB *gorm.DB
}

func (l GormCodeLookup) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := l.DB.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("code = ?", code).
		Count(&count).Error
	return count > 0, err
}
