package dto

import (
	"strings"

	"github.com/evalhub/review-api/internal/models"
)

// Legacy clients predate the split of approval outcomes into independent
// modality flags and still speak the old Portuguese status vocabulary.
// The mapping lives here so nothing below the DTO layer ever sees it.

// NormalizeModality resolves current and legacy modality spellings.
func NormalizeModality(raw string) (models.Modality, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "exposition", "written", "escrita", "exposicao", "aprovado_escrita", "aprovado_exposicao":
		return models.ModalityExposition, true
	case "oral", "apresentacao", "aprovado_oral":
		return models.ModalityOral, true
	}
	return "", false
}

// LegacyStatus renders the single combined status string old clients expect.
func LegacyStatus(submission models.Submission) string {
	switch {
	case submission.Status == models.SubmissionStatusRejected:
		return "reprovado"
	case submission.ApprovedExposition && submission.ApprovedOral:
		return "aprovado"
	case submission.ApprovedExposition:
		return "aprovado_exposicao"
	case submission.ApprovedOral:
		return "aprovado_oral"
	}
	return submission.Status
}
