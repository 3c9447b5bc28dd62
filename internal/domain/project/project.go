package project

import (
	"errors"
	"time"

	"teamflow-roadmap/internal/domain/dates"
)

// Project はロードマップ上のプロジェクトのドメインモデル。
// Dates はアサインメントが収まるべき外側の境界となる正準の日付範囲。
type Project struct {
	ID          string
	Name        string
	Description string
	Dates       dates.Range
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewProject は新しいプロジェクトを生成する。
// Name が空、または日付範囲が逆転している場合はエラーを返す。
func NewProject(id, name, description string, r dates.Range, now time.Time) (*Project, error) {
	if name == "" {
		return nil, errors.New("project name must not be empty")
	}

	if !r.Valid() {
		return nil, errors.New("project start date must not be after end date")
	}

	return &Project{
		ID:          id,
		Name:        name,
		Description: description,
		Dates:       r,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ChangeDates はプロジェクトの日付範囲を置き換える。
// 競合検出・解決は呼び出し側（ユースケース層）の責務であり、
// ここでは範囲の形式のみを検証する。
func (p *Project) ChangeDates(r dates.Range, now time.Time) error {
	if !r.Valid() {
		return errors.New("project start date must not be after end date")
	}

	p.Dates = r
	p.UpdatedAt = now
	return nil
}
