/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Engine values carry
  decimal.Decimal; responses carry plain numbers rounded for display
  (hours and money to 2 places) so report exporters can use them as-is.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Taxonomy:  CategoryDTO, RatesDTO, CategorizeRequest/CategorizeDTO
  Estimate:  FeeEstimateDTO, EstimateCategoryDTO, EstimateTaskDTO, UpdateEntryRequest
  Ledger:    LedgerDTO, LedgerRowDTO
  WIP:       WIPDTO, GradeWIPDTO, UserWIPDTO
  SIP9:      ReportDTO, ReportRowDTO
  Variance:  VarianceDTO
  Scenarios: ScenarioDTO, LoadScenarioRequest

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/fee-engine/core"
	"github.com/warp/fee-engine/fees"
)

// =============================================================================
// NUMBERS
// =============================================================================

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// TotalsDTO is core.Totals for the wire.
type TotalsDTO struct {
	TotalHours float64 `json:"total_hours"`
	TotalCost  float64 `json:"total_cost"`
}

func toTotalsDTO(t core.Totals) TotalsDTO {
	return TotalsDTO{TotalHours: round2(t.TotalHours), TotalCost: round2(t.TotalCost)}
}

// =============================================================================
// TAXONOMY
// =============================================================================

type CategoryDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RatesDTO struct {
	Partner   float64 `json:"Partner"`
	Manager   float64 `json:"Manager"`
	Executive float64 `json:"Executive"`
	Secretary float64 `json:"Secretary"`
}

type CategorizeRequest struct {
	Description string `json:"description"`
}

type CategorizeDTO struct {
	Category string `json:"category"`
	Name     string `json:"name"`
}

// =============================================================================
// FEE ESTIMATE
// =============================================================================

type EstimateTaskDTO struct {
	ID             string  `json:"id"`
	Label          string  `json:"label"`
	PartnerHours   float64 `json:"partner_hours"`
	ManagerHours   float64 `json:"manager_hours"`
	ExecutiveHours float64 `json:"executive_hours"`
	SecretaryHours float64 `json:"secretary_hours"`
	Notes          string  `json:"notes"`
	TotalsDTO
}

type EstimateCategoryDTO struct {
	ID    string            `json:"id"`
	Name  string            `json:"name"`
	Tasks []EstimateTaskDTO `json:"tasks"`
	TotalsDTO
}

type FeeEstimateDTO struct {
	CaseID     string                `json:"case_id"`
	CaseType   string                `json:"case_type"`
	Categories []EstimateCategoryDTO `json:"categories"`
	Grand      TotalsDTO             `json:"grand_total"`
	Dirty      bool                  `json:"unsaved_changes"`
	SaveError  string                `json:"save_error,omitempty"`

	// Trading is outside grand_total. ReportsTrading says whether the
	// SIP9 report for this case type includes it.
	Trading        *EstimateCategoryDTO `json:"trading,omitempty"`
	ReportsTrading bool                 `json:"reports_trading"`
}

func toFeeEstimateDTO(caseID, caseType string, est fees.Estimate) FeeEstimateDTO {
	dto := FeeEstimateDTO{
		CaseID:         caseID,
		CaseType:       caseType,
		Categories:     make([]EstimateCategoryDTO, 0, len(est.Categories)),
		Grand:          toTotalsDTO(est.Grand),
		ReportsTrading: fees.IncludesCategory(fees.CategoryTrading, caseType),
	}
	for _, line := range est.Categories {
		dto.Categories = append(dto.Categories, toEstimateCategoryDTO(line))
	}
	if est.Trading != nil {
		trading := toEstimateCategoryDTO(*est.Trading)
		dto.Trading = &trading
	}
	return dto
}

func toEstimateCategoryDTO(line fees.CategoryLine) EstimateCategoryDTO {
	cat := EstimateCategoryDTO{
		ID:        string(line.Category),
		Name:      line.Name,
		Tasks:     make([]EstimateTaskDTO, 0, len(line.Tasks)),
		TotalsDTO: toTotalsDTO(line.Totals),
	}
	for _, task := range line.Tasks {
		cat.Tasks = append(cat.Tasks, EstimateTaskDTO{
			ID:             task.Activity.ID,
			Label:          task.Activity.Label,
			PartnerHours:   round2(task.Entry.PartnerHours.Decimal()),
			ManagerHours:   round2(task.Entry.ManagerHours.Decimal()),
			ExecutiveHours: round2(task.Entry.ExecutiveHours.Decimal()),
			SecretaryHours: round2(task.Entry.SecretaryHours.Decimal()),
			Notes:          task.Entry.Notes,
			TotalsDTO:      toTotalsDTO(task.Totals),
		})
	}
	return cat
}

// UpdateEntryRequest edits one activity. Omitted fields are unchanged;
// hour values may be numbers, numeric strings or empty strings.
type UpdateEntryRequest struct {
	PartnerHours   *core.Hours `json:"partner_hours"`
	ManagerHours   *core.Hours `json:"manager_hours"`
	ExecutiveHours *core.Hours `json:"executive_hours"`
	SecretaryHours *core.Hours `json:"secretary_hours"`
	Notes          *string     `json:"notes"`
}

func (r UpdateEntryRequest) hours() map[fees.Grade]*core.Hours {
	return map[fees.Grade]*core.Hours{
		fees.GradePartner:   r.PartnerHours,
		fees.GradeManager:   r.ManagerHours,
		fees.GradeExecutive: r.ExecutiveHours,
		fees.GradeSecretary: r.SecretaryHours,
	}
}

// =============================================================================
// LEDGER
// =============================================================================

type LedgerRowDTO struct {
	ID     string               `json:"id"`
	Name   string               `json:"name"`
	Groups map[string]TotalsDTO `json:"groups"`
	Total  TotalsDTO            `json:"total"`
}

type DroppedEntryDTO struct {
	EntryID         string `json:"entry_id"`
	TaskDescription string `json:"task_description"`
	Category        string `json:"category"`
	Reason          string `json:"reason"`
}

type LedgerDTO struct {
	CaseID      string               `json:"case_id"`
	From        string               `json:"from,omitempty"`
	To          string               `json:"to,omitempty"`
	Categories  []LedgerRowDTO       `json:"categories"`
	GroupTotals map[string]TotalsDTO `json:"group_totals"`
	Total       TotalsDTO            `json:"total"`
	Dropped     []DroppedEntryDTO    `json:"dropped,omitempty"`
}

func toLedgerDTO(caseID string, l fees.Ledger) LedgerDTO {
	dto := LedgerDTO{
		CaseID:      caseID,
		Categories:  make([]LedgerRowDTO, 0, len(l.Cells)),
		GroupTotals: make(map[string]TotalsDTO, len(l.GroupTotals)),
		Total:       toTotalsDTO(l.Total),
	}
	if l.Range.Bounded() {
		dto.From, dto.To = l.Range.From.String(), l.Range.To.String()
	}
	for _, c := range fees.AllCategories() {
		row := LedgerRowDTO{
			ID:     string(c),
			Name:   c.DisplayName(),
			Groups: make(map[string]TotalsDTO, len(fees.AllRoleGroups())),
			Total:  toTotalsDTO(l.CategoryTotals[c]),
		}
		for _, g := range fees.AllRoleGroups() {
			row.Groups[string(g)] = toTotalsDTO(l.Cell(c, g))
		}
		dto.Categories = append(dto.Categories, row)
	}
	for _, g := range fees.AllRoleGroups() {
		dto.GroupTotals[string(g)] = toTotalsDTO(l.GroupTotals[g])
	}
	for _, d := range l.Dropped {
		dto.Dropped = append(dto.Dropped, DroppedEntryDTO{
			EntryID:         d.Entry.ID,
			TaskDescription: d.Entry.TaskDescription,
			Category:        string(d.Category),
			Reason:          d.Reason.Error(),
		})
	}
	return dto
}

// =============================================================================
// WIP
// =============================================================================

type GradeWIPDTO struct {
	Grade string  `json:"grade"`
	Rate  float64 `json:"rate"`
	TotalsDTO
}

type UserWIPDTO struct {
	Email string  `json:"email"`
	Name  string  `json:"name"`
	Grade string  `json:"grade"`
	Hours float64 `json:"hours"`
	Cost  float64 `json:"cost"`
}

type WIPDTO struct {
	CaseID   string        `json:"case_id"`
	From     string        `json:"from,omitempty"`
	To       string        `json:"to,omitempty"`
	ByGrade  []GradeWIPDTO `json:"by_grade"`
	ByUser   []UserWIPDTO  `json:"by_user"`
	TotalWIP float64       `json:"total_wip"`
	Total    TotalsDTO     `json:"total"`
}

func toWIPDTO(caseID string, rates fees.RateTable, w fees.WIP) WIPDTO {
	dto := WIPDTO{
		CaseID:   caseID,
		ByGrade:  make([]GradeWIPDTO, 0, len(w.ByGrade)),
		ByUser:   make([]UserWIPDTO, 0, len(w.ByUser)),
		TotalWIP: round2(fees.TotalWIP(w.ByGrade)),
		Total:    toTotalsDTO(w.Total),
	}
	if w.Range.Bounded() {
		dto.From, dto.To = w.Range.From.String(), w.Range.To.String()
	}
	for _, g := range fees.AllGrades() {
		dto.ByGrade = append(dto.ByGrade, GradeWIPDTO{
			Grade:     string(g),
			Rate:      round2(rates.Rate(g)),
			TotalsDTO: toTotalsDTO(w.ByGrade[g]),
		})
	}
	for _, u := range w.ByUser {
		dto.ByUser = append(dto.ByUser, UserWIPDTO{
			Email: u.Email,
			Name:  u.Name,
			Grade: string(u.Grade),
			Hours: round2(u.Hours),
			Cost:  round2(u.Cost),
		})
	}
	return dto
}

// =============================================================================
// SIP9 REPORT
// =============================================================================

type ReportRowDTO struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	TotalHours        float64 `json:"total_hours"`
	TotalCost         float64 `json:"total_cost"`
	AverageHourlyCost float64 `json:"average_hourly_cost"`
}

type ReportDTO struct {
	CaseID                 string         `json:"case_id"`
	CaseType               string         `json:"case_type"`
	Categories             []ReportRowDTO `json:"categories"`
	GrandTotalHours        float64        `json:"grand_total_hours"`
	GrandTotalCost         float64        `json:"grand_total_cost"`
	GrandAverageHourlyCost float64        `json:"grand_average_hourly_cost"`
}

func toReportDTO(caseID string, r fees.Report) ReportDTO {
	dto := ReportDTO{
		CaseID:                 caseID,
		CaseType:               r.CaseType,
		Categories:             make([]ReportRowDTO, 0, len(r.Categories)),
		GrandTotalHours:        round2(r.GrandTotalHours),
		GrandTotalCost:         round2(r.GrandTotalCost),
		GrandAverageHourlyCost: round2(r.GrandAverageHourlyCost()),
	}
	for _, row := range r.Categories {
		dto.Categories = append(dto.Categories, ReportRowDTO{
			ID:                string(row.Category),
			Name:              row.Name,
			TotalHours:        round2(row.TotalHours),
			TotalCost:         round2(row.TotalCost),
			AverageHourlyCost: round2(row.AverageHourlyCost),
		})
	}
	return dto
}

// =============================================================================
// ESTIMATE VS ACTUAL
// =============================================================================

type VarianceDTO struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Estimated     TotalsDTO `json:"estimated"`
	Actual        TotalsDTO `json:"actual"`
	HoursVariance float64   `json:"hours_variance"`
	CostVariance  float64   `json:"cost_variance"`
}

func toVarianceDTOs(vs []fees.Variance) []VarianceDTO {
	out := make([]VarianceDTO, 0, len(vs))
	for _, v := range vs {
		out = append(out, VarianceDTO{
			ID:            string(v.Category),
			Name:          v.Name,
			Estimated:     toTotalsDTO(v.Estimated),
			Actual:        toTotalsDTO(v.Actual),
			HoursVariance: round2(v.HoursVariance),
			CostVariance:  round2(v.CostVariance),
		})
	}
	return out
}

// =============================================================================
// SCENARIOS / ERRORS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CaseType    string `json:"case_type"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
