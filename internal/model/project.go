// Package model はドメインモデルを定義する。
package model

import "time"

// Methodology はプロジェクトが従う管理手法を表す。
type Methodology string

const (
	MethodologyPMBOK    Methodology = "pmbok"
	MethodologyISO21502 Methodology = "iso21502"
	MethodologyAgile    Methodology = "agil"
)

// Methodologies は許可された手法の一覧（表示順）。
var Methodologies = []Methodology{MethodologyPMBOK, MethodologyISO21502, MethodologyAgile}

// ParseMethodology は文字列をMethodologyに変換する。未知の値の場合はfalseを返す。
func ParseMethodology(s string) (Methodology, bool) {
	for _, m := range Methodologies {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// Stage はプロジェクトのライフサイクル段階を表す。
type Stage string

const (
	StageIdea          Stage = "idea"
	StagePlanificacion Stage = "planificacion"
	StageEjecucion     Stage = "ejecucion"
	StageCierre        Stage = "cierre"
)

// Stages は許可された段階の一覧（ライフサイクル順）。
var Stages = []Stage{StageIdea, StagePlanificacion, StageEjecucion, StageCierre}

// ParseStage は文字列をStageに変換する。未知の値の場合はfalseを返す。
func ParseStage(s string) (Stage, bool) {
	for _, st := range Stages {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Template はプロジェクトで採用した成果物テンプレートと、その採用理由を表す。
type Template struct {
	Name string `json:"name"`
	Why  string `json:"why"`
}

// Project はユーザーが所有するプロジェクトを表す。
// Templatesはjsonbカラムに配列として順序を保ったまま保存される。
type Project struct {
	ID          int64
	UserID      int64
	Name        string
	Methodology Methodology
	Stage       Stage
	Domain      string
	Templates   []Template
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
