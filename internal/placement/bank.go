package placement

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/pathwise/internal/store"
)

//go:embed bank.schema.json
var bankSchemaJSON []byte

const bankSchemaURL = "schema://placement-bank.json"

var (
	bankSchemaOnce sync.Once
	bankSchema     *jsonschema.Schema
	bankSchemaErr  error
)

// Bank is an importable set of placement questions for one assessment.
type Bank struct {
	AssessmentID string     `json:"assessment_id" yaml:"assessment_id"`
	Title        string     `json:"title,omitempty" yaml:"title,omitempty"`
	GradeBand    string     `json:"grade_band,omitempty" yaml:"grade_band,omitempty"`
	Questions    []Question `json:"questions" yaml:"questions"`
}

func compiledBankSchema() (*jsonschema.Schema, error) {
	bankSchemaOnce.Do(func() {
		var doc any
		if err := json.Unmarshal(bankSchemaJSON, &doc); err != nil {
			bankSchemaErr = fmt.Errorf("parse bank schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(bankSchemaURL, doc); err != nil {
			bankSchemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		bankSchema, bankSchemaErr = c.Compile(bankSchemaURL)
	})
	return bankSchema, bankSchemaErr
}

// ParseBank validates raw JSON against the bank schema and decodes it.
func ParseBank(raw []byte) (*Bank, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := ValidateBankDocument(parsed); err != nil {
		return nil, err
	}
	var bank Bank
	if err := json.Unmarshal(raw, &bank); err != nil {
		return nil, fmt.Errorf("decode bank: %w", err)
	}
	return &bank, nil
}

// ValidateBankDocument validates an already-parsed JSON value.
func ValidateBankDocument(doc any) error {
	schema, err := compiledBankSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("bank schema validation failed: %w", err)
	}
	return nil
}

// Validate checks the bank through the same schema used for JSON imports.
func (b *Bank) Validate() error {
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode bank: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return ValidateBankDocument(doc)
}

// ImportBank stores every question of the bank. Question ids are scoped by
// assessment so banks can reuse local ids.
func ImportBank(ctx context.Context, repo store.PlacementRepo, bank *Bank) (int, error) {
	for i, q := range bank.Questions {
		rec := store.PlacementQuestionRecord{
			ID:              bank.AssessmentID + "/" + q.ID,
			AssessmentID:    bank.AssessmentID,
			BankQuestionID:  q.BankQuestionID,
			Prompt:          q.Prompt,
			Weight:          q.weight(),
			Difficulty:      q.Difficulty,
			Strand:          q.Strand,
			TargetStandards: q.TargetStandards,
			Position:        i,
		}
		if rec.BankQuestionID == "" {
			rec.BankQuestionID = q.ID
		}
		for _, o := range q.Options {
			rec.Options = append(rec.Options, store.OptionRecord{ID: o.ID, Text: o.Text, Correct: o.Correct})
		}
		if err := repo.UpsertPlacementQuestion(ctx, rec); err != nil {
			return i, err
		}
	}
	return len(bank.Questions), nil
}
