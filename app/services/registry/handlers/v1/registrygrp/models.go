package registrygrp

import (
	"fmt"

	"github.com/startrail/starregistry/foundation/ledger/database"
	"github.com/startrail/starregistry/foundation/nameservice"
	"github.com/startrail/starregistry/foundation/validate"
)

// challengeRequest is what a wallet sends to start a star claim.
type challengeRequest struct {
	Address string `json:"address" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (req challengeRequest) Validate() error {
	if err := validate.Check(req); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// challengeResponse carries the message the wallet must sign.
type challengeResponse struct {
	Address string `json:"address"`
	Message string `json:"message"`
}

// star is the transport form of a star claim.
type star struct {
	RA    string `json:"ra" validate:"required"`
	Dec   string `json:"dec" validate:"required"`
	Mag   string `json:"mag"`
	Cen   string `json:"cen"`
	Story string `json:"story" validate:"required,max=500"`
}

// submitStarRequest is what a wallet sends to claim a star. The message
// must be the challenge previously issued for the address and the signature
// must cover that message.
type submitStarRequest struct {
	Address   string `json:"address" validate:"required"`
	Message   string `json:"message" validate:"required"`
	Signature string `json:"signature" validate:"required"`
	Star      star   `json:"star" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (req submitStarRequest) Validate() error {
	if err := validate.Check(req); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// validateError reports a single chain inconsistency.
type validateError struct {
	Number uint64 `json:"number"`
	Error  string `json:"error"`
}

// blockModel is the transport form of a committed block with its payload
// decoded back into structured form.
type blockModel struct {
	Number        uint64 `json:"number"`
	TimeStamp     uint64 `json:"timestamp"`
	PrevBlockHash string `json:"prev_block_hash"`
	Hash          string `json:"hash"`
	Data          string `json:"data,omitempty"`
	Owner         string `json:"owner,omitempty"`
	Name          string `json:"name,omitempty"`
	Star          *star  `json:"star,omitempty"`
}

// toBlockModel decodes the block body and resolves the owner name.
func toBlockModel(blk database.Block, ns *nameservice.NameService) (blockModel, error) {
	payload, err := blk.DecodePayload()
	if err != nil {
		return blockModel{}, err
	}

	model := blockModel{
		Number:        blk.Header.Number,
		TimeStamp:     blk.Header.TimeStamp,
		PrevBlockHash: blk.Header.PrevBlockHash,
		Hash:          blk.Hash,
		Data:          payload.Data,
	}

	if payload.Star != nil {
		model.Owner = string(payload.Owner)
		model.Name = ns.Lookup(payload.Owner)
		model.Star = &star{
			RA:    payload.Star.RA,
			Dec:   payload.Star.Dec,
			Mag:   payload.Star.Mag,
			Cen:   payload.Star.Cen,
			Story: payload.Star.Story,
		}
	}

	return model, nil
}
