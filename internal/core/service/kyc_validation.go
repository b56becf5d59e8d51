package service

import (
	"strings"

	"github.com/rentahome/kyc-service/internal/core/domain"
	"github.com/rentahome/kyc-service/internal/core/ports"
)

const defaultMaxDocumentBytes = 5 << 20

var documentContentTypes = []string{"application/pdf", "image/jpeg", "image/png"}

// validateTier1 normalizes the phone and checks the NIN, reporting every bad
// field at once.
func validateTier1(phoneNumber, nin string) (string, string, error) {
	ve := &domain.ValidationError{}

	phone, err := domain.NormalizePhone(phoneNumber)
	if err != nil {
		ve.Add("phone_number", "must be a valid 11-digit phone number")
	}

	nin = strings.TrimSpace(nin)
	switch {
	case nin == "":
		ve.Add("nin", "is required")
	case !domain.ValidNIN(nin):
		ve.Add("nin", "must be exactly 11 digits")
	}

	if err := ve.OrNil(); err != nil {
		return "", "", err
	}
	return phone, nin, nil
}

func validateTier2(in ports.Tier2Input, maxBytes int64) error {
	ve := &domain.ValidationError{}

	if !domain.Contains(domain.DocumentTypes, in.DocumentType) {
		ve.Add("document_type", "must be one of: "+strings.Join(domain.DocumentTypes, ", "))
	}

	switch {
	case in.Document.Body == nil || in.Document.Size <= 0:
		ve.Add("file", "is required")
	case in.Document.Size > maxBytes:
		ve.Add("file", "exceeds the maximum upload size")
	}

	if in.Document.Body != nil && !domain.Contains(documentContentTypes, baseContentType(in.Document.ContentType)) {
		ve.Add("file", "must be a PDF, JPEG or PNG")
	}

	return ve.OrNil()
}

// tier3Fields is the trimmed, validated form of a tier3 submission.
type tier3Fields struct {
	bvn                string
	accountNumber      string
	bankCode           string
	businessName       string
	businessType       string
	registrationNumber string
}

func validateTier3(in ports.Tier3Input) (tier3Fields, error) {
	f := tier3Fields{
		bvn:                strings.TrimSpace(in.BVN),
		accountNumber:      strings.TrimSpace(in.AccountNumber),
		bankCode:           strings.TrimSpace(in.BankCode),
		businessName:       strings.TrimSpace(in.BusinessName),
		businessType:       strings.TrimSpace(in.BusinessType),
		registrationNumber: strings.ToUpper(strings.TrimSpace(in.RegistrationNumber)),
	}
	ve := &domain.ValidationError{}

	if !domain.ValidBVN(f.bvn) {
		ve.Add("bvn", "must be exactly 11 digits")
	}
	if !domain.ValidAccountNumber(f.accountNumber) {
		ve.Add("account_number", "must be exactly 10 digits")
	}
	if !domain.ValidBankCode(f.bankCode) {
		ve.Add("bank_code", "must be a numeric bank code")
	}
	if f.businessName == "" {
		ve.Add("business_name", "is required")
	}
	if !domain.Contains(domain.BusinessTypes, f.businessType) {
		ve.Add("business_type", "must be one of: "+strings.Join(domain.BusinessTypes, ", "))
	} else if domain.RequiresRegistryCheck(f.businessType) && f.registrationNumber == "" {
		ve.Add("registration_number", "is required for registered companies")
	}

	if err := ve.OrNil(); err != nil {
		return tier3Fields{}, err
	}
	return f, nil
}

func baseContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
