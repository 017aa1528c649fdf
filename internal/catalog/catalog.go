// Package catalog holds the static list of document types the generator can draft.
package catalog

import (
	"strings"

	"github.com/lexi/pkg/models"
)

var templates = []models.DocumentTemplate{
	{ID: "1", Name: models.CategoryResidentialLease, Description: "For renting out a house or apartment.", Icon: "Home", RequiredFields: []string{"Landlord", "Tenant", "Rent", "Term"}},
	{ID: "2", Name: models.CategoryCommercialLease, Description: "Leasing office or retail space.", Icon: "Building2", RequiredFields: []string{"Lessor", "Lessee", "Premises"}},
	{ID: "3", Name: models.CategoryServiceAgreement, Description: "Hiring a freelancer or agency.", Icon: "Briefcase", RequiredFields: []string{"Client", "Provider", "Services"}},
	{ID: "4", Name: models.CategoryConsultingAgreement, Description: "Professional advice services.", Icon: "Users", RequiredFields: []string{"Consultant", "Company", "Scope"}},
	{ID: "5", Name: models.CategoryNDA, Description: "Protect confidential information.", Icon: "ShieldCheck", RequiredFields: []string{"Disclosing Party", "Receiving Party"}},
	{ID: "6", Name: models.CategorySalesContract, Description: "Selling goods or high-value items.", Icon: "ScrollText", RequiredFields: []string{"Buyer", "Seller", "Item"}},
	{ID: "7", Name: models.CategoryEmployment, Description: "Hiring a new employee.", Icon: "Users", RequiredFields: []string{"Employer", "Employee", "Role"}},
	{ID: "8", Name: models.CategorySublease, Description: "Renting your rented space to others.", Icon: "Home", RequiredFields: []string{"Sublessor", "Sublessee"}},
	{ID: "9", Name: models.CategoryCorporate, Description: "Operating agreements, bylaws.", Icon: "Building2", RequiredFields: []string{"Company", "Members"}},
	{ID: "10", Name: models.CategoryPolicy, Description: "Privacy policy, Terms of use.", Icon: "FileWarning", RequiredFields: []string{"Company Name"}},
	{ID: "11", Name: models.CategoryForm, Description: "Eviction notice, demand letter.", Icon: "FileText", RequiredFields: []string{"Recipient", "Sender"}},
}

// All returns every template in display order. The returned slice is a copy.
func All() []models.DocumentTemplate {
	out := make([]models.DocumentTemplate, len(templates))
	for i, t := range templates {
		out[i] = clone(t)
	}
	return out
}

// Lookup finds a template by id
func Lookup(id string) (models.DocumentTemplate, bool) {
	for _, t := range templates {
		if t.ID == id {
			return clone(t), true
		}
	}
	return models.DocumentTemplate{}, false
}

// ByName finds a template by its category label (case-insensitive)
func ByName(name string) (models.DocumentTemplate, bool) {
	for _, t := range templates {
		if strings.EqualFold(string(t.Name), strings.TrimSpace(name)) {
			return clone(t), true
		}
	}
	return models.DocumentTemplate{}, false
}

// Resolve accepts either a template id or a category label
func Resolve(ref string) (models.DocumentTemplate, bool) {
	if t, ok := Lookup(ref); ok {
		return t, true
	}
	return ByName(ref)
}

// Search filters templates whose name or description contains term, ignoring case.
// An empty term matches everything.
func Search(term string) []models.DocumentTemplate {
	term = strings.ToLower(strings.TrimSpace(term))
	var out []models.DocumentTemplate
	for _, t := range templates {
		if term == "" ||
			strings.Contains(strings.ToLower(string(t.Name)), term) ||
			strings.Contains(strings.ToLower(t.Description), term) {
			out = append(out, clone(t))
		}
	}
	return out
}

func clone(t models.DocumentTemplate) models.DocumentTemplate {
	t.RequiredFields = append([]string(nil), t.RequiredFields...)
	return t
}
