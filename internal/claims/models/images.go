package models

import (
	"strings"

	dErrors "escena/pkg/domain-errors"
	platformstrings "escena/pkg/platform/strings"
)

// MaxGalleryImages caps the gallery of every profile.
const MaxGalleryImages = 10

// ImageSet holds the public URLs of a profile's images. Empty strings and an
// empty gallery mean "no image".
type ImageSet struct {
	Logo    string   `json:"logo,omitempty"`
	Primary string   `json:"primary,omitempty"`
	Gallery []string `json:"gallery,omitempty"`
}

// IsEmpty reports whether no image field is set.
func (s ImageSet) IsEmpty() bool {
	return s.Logo == "" && s.Primary == "" && len(s.Gallery) == 0
}

// Normalize trims URLs, drops blanks and duplicates from the gallery and caps it.
func (s ImageSet) Normalize() ImageSet {
	return ImageSet{
		Logo:    strings.TrimSpace(s.Logo),
		Primary: strings.TrimSpace(s.Primary),
		Gallery: platformstrings.DedupeAndTrim(s.Gallery, MaxGalleryImages),
	}
}

// ImageChoice is the claimant's answer to "whose images should the profile keep".
type ImageChoice string

const (
	ImageChoiceKeepOperator ImageChoice = "keep_operator"
	ImageChoiceUseMine      ImageChoice = "use_mine"
)

// ParseImageChoice defaults to keep_operator when the claimant did not answer.
func ParseImageChoice(s string) (ImageChoice, error) {
	switch ImageChoice(s) {
	case "":
		return ImageChoiceKeepOperator, nil
	case ImageChoiceKeepOperator, ImageChoiceUseMine:
		return ImageChoice(s), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "image_choice debe ser keep_operator o use_mine")
}

// MergeImages resolves the canonical image set at claim approval. It depends only
// on its inputs:
//
//	entity empty                        -> claimant fields applied
//	entity set, claimant set, use_mine  -> claimant fields overwrite, field by field
//	entity set, claimant set, keep      -> entity untouched
//	claimant none                       -> entity untouched
func MergeImages(entity ImageSet, claimant *ImageSet, choice ImageChoice) ImageSet {
	if claimant == nil || claimant.IsEmpty() {
		return entity
	}
	if !entity.IsEmpty() && choice != ImageChoiceUseMine {
		return entity
	}
	merged := entity
	if claimant.Logo != "" {
		merged.Logo = claimant.Logo
	}
	if claimant.Primary != "" {
		merged.Primary = claimant.Primary
	}
	if len(claimant.Gallery) > 0 {
		merged.Gallery = append([]string(nil), claimant.Gallery...)
	}
	return merged.Normalize()
}
