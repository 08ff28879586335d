package review

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/utafrali/plantstore/internal/domain"
	"github.com/utafrali/plantstore/pkg/validator"
)

// Validate checks a review's rating and comment. The comment is measured in
// characters after trimming surrounding whitespace.
func Validate(rating int, comment string) error {
	fields := make(map[string]string)

	if rating < domain.MinRating || rating > domain.MaxRating {
		fields["rating"] = fmt.Sprintf("must be between %d and %d", domain.MinRating, domain.MaxRating)
	}

	n := utf8.RuneCountInString(strings.TrimSpace(comment))
	switch {
	case n < domain.MinCommentLength:
		fields["comment"] = fmt.Sprintf("must be at least %d characters", domain.MinCommentLength)
	case n > domain.MaxCommentLength:
		fields["comment"] = fmt.Sprintf("must be at most %d characters", domain.MaxCommentLength)
	}

	if len(fields) > 0 {
		return validator.NewValidationError(fields)
	}
	return nil
}
