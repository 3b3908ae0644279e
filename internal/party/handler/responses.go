package handler

import (
	"time"

	"contractdesk/internal/party/models"
	"contractdesk/pkg/domain"
)

type AddressResponse struct {
	Street              string `json:"street"`
	Number              string `json:"number"`
	Complement          string `json:"complement"`
	District            string `json:"district"`
	City                string `json:"city"`
	State               string `json:"state"`
	PostalCode          string `json:"postal_code"`
	PostalCodeFormatted string `json:"postal_code_formatted,omitempty"`
}

type OrganizationResponse struct {
	ID                string          `json:"id"`
	LegalName         string          `json:"legal_name"`
	TradeName         string          `json:"trade_name"`
	TaxID             string          `json:"tax_id"`
	TaxIDFormatted    string          `json:"tax_id_formatted"`
	StateRegistration string          `json:"state_registration"`
	Address           AddressResponse `json:"address"`
	Phone             string          `json:"phone"`
	Email             string          `json:"email"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type IndividualResponse struct {
	ID                  string          `json:"id"`
	FullName            string          `json:"full_name"`
	NationalID          string          `json:"national_id"`
	NationalIDFormatted string          `json:"national_id_formatted"`
	BirthDate           domain.Date     `json:"birth_date"`
	Address             AddressResponse `json:"address"`
	Phone               string          `json:"phone"`
	Email               string          `json:"email"`
	Status              string          `json:"status"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type OrganizationListResponse struct {
	Organizations []OrganizationResponse `json:"organizations"`
	Total         int                    `json:"total"`
}

type IndividualListResponse struct {
	Individuals []IndividualResponse `json:"individuals"`
	Total       int                  `json:"total"`
}

func toAddressResponse(a models.Address) AddressResponse {
	resp := AddressResponse{
		Street:     a.Street,
		Number:     a.Number,
		Complement: a.Complement,
		District:   a.District,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
	}
	if a.PostalCode != "" {
		resp.PostalCodeFormatted = a.FormattedPostalCode()
	}
	return resp
}

func toOrganizationResponse(o *models.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:                o.ID.String(),
		LegalName:         o.LegalName,
		TradeName:         o.TradeName,
		TaxID:             o.TaxID,
		TaxIDFormatted:    o.FormattedTaxID(),
		StateRegistration: o.StateRegistration,
		Address:           toAddressResponse(o.Address),
		Phone:             o.Phone,
		Email:             o.Email,
		Status:            string(o.Status),
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func toIndividualResponse(i *models.Individual) IndividualResponse {
	return IndividualResponse{
		ID:                  i.ID.String(),
		FullName:            i.FullName,
		NationalID:          i.NationalID,
		NationalIDFormatted: i.FormattedNationalID(),
		BirthDate:           i.BirthDate,
		Address:             toAddressResponse(i.Address),
		Phone:               i.Phone,
		Email:               i.Email,
		Status:              string(i.Status),
		CreatedAt:           i.CreatedAt,
		UpdatedAt:           i.UpdatedAt,
	}
}
