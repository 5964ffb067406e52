package model

import (
	"github.com/google/uuid"
)

type Variant string

const (
	VariantMCQ  Variant = "mcq"
	VariantCode Variant = "code"
	VariantText Variant = "text"
)

var Variants = []Variant{VariantMCQ, VariantCode, VariantText}

func (v Variant) Valid() bool {
	switch v {
	case VariantMCQ, VariantCode, VariantText:
		return true
	}
	return false
}

type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

var Difficulties = []Difficulty{Beginner, Intermediate, Advanced}

func (d Difficulty) Valid() bool {
	switch d {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

func GenerateUUID() string {
	return uuid.New().String()
}
