package locales

import (
	_ "embed"
	"encoding/json"
	"log"
)

//go:embed locales.json
var localesJSON []byte

// Locales содержит все текстовые строки из locales.json
type Locales struct {
	Common Common `json:"common"`
	Funnel Funnel `json:"funnel"`
	Notify Notify `json:"notify"`
	Admin  Admin  `json:"admin"`
}

type Common struct {
	Welcome        string `json:"welcome"`
	Help           string `json:"help"`
	SessionExpired string `json:"session_expired"`
	TextReceived   string `json:"text_received"`
}

type Funnel struct {
	CardHeader string `json:"card_header"`
	Progress   string `json:"progress"`

	Questions struct {
		Service        string `json:"service"`
		CustomsCargo   string `json:"customs_cargo"`
		CustomsCountry string `json:"customs_country"`
		InvoiceValue   string `json:"invoice_value"`
		CustomsUrgency string `json:"customs_urgency"`
		Country        string `json:"country"`
		City           string `json:"city"`
		CargoType      string `json:"cargo_type"`
		Weight         string `json:"weight"`
		Volume         string `json:"volume"`
		Urgency        string `json:"urgency"`
		Incoterms      string `json:"incoterms"`
		Phone          string `json:"phone"`
		Comment        string `json:"comment"`
		FreeQuestion   string `json:"free_question"`
	} `json:"questions"`

	Manual struct {
		Country string `json:"country"`
		Cargo   string `json:"cargo"`
		Weight  string `json:"weight"`
		Volume  string `json:"volume"`
		Value   string `json:"value"`
	} `json:"manual"`

	Errors struct {
		Number       string `json:"number"`
		Phone        string `json:"phone"`
		Place        string `json:"place"`
		ChooseOption string `json:"choose_option"`
	} `json:"errors"`

	Buttons struct {
		Back       string `json:"back"`
		Skip       string `json:"skip"`
		Manual     string `json:"manual"`
		SharePhone string `json:"share_phone"`
		Restart    string `json:"restart"`
	} `json:"buttons"`

	Fields struct {
		Service string `json:"service"`
		Country string `json:"country"`
		City    string `json:"city"`
		Cargo   string `json:"cargo"`
		Weight  string `json:"weight"`
		Volume  string `json:"volume"`
		Urgency string `json:"urgency"`
		Terms   string `json:"terms"`
		Value   string `json:"value"`
		Phone   string `json:"phone"`
		Comment string `json:"comment"`
	} `json:"fields"`

	PhoneHint        string `json:"phone_hint"`
	PhoneSaved       string `json:"phone_saved"`
	Confirm          string `json:"confirm"`
	ConfirmUnsaved   string `json:"confirm_unsaved"`
	NotifyCaveat     string `json:"notify_caveat"`
	QuestionReceived string `json:"question_received"`

	AfterSubmit struct {
		Docs    string `json:"docs"`
		Details string `json:"details"`
		Call    string `json:"call"`
	} `json:"after_submit"`
}

type Notify struct {
	NewLead      string `json:"new_lead"`
	Forwarded    string `json:"forwarded"`
	Test         string `json:"test"`
	TakeProgress string `json:"take_progress"`
	ShowPhone    string `json:"show_phone"`
}

type Admin struct {
	NoLeads       string `json:"no_leads"`
	LeadsHeader   string `json:"leads_header"`
	LeadNotFound  string `json:"lead_not_found"`
	LeadUsage     string `json:"lead_usage"`
	StatusUsage   string `json:"status_usage"`
	StatusBadID   string `json:"status_bad_id"`
	StatusInvalid string `json:"status_invalid"`
	StatusSet     string `json:"status_set"`
	ExportEmpty   string `json:"export_empty"`
	ExportCaption string `json:"export_caption"`
	StoreDown     string `json:"store_down"`
	TakenProgress string `json:"taken_progress"`
	ClientPhone   string `json:"client_phone"`
	NoAccess      string `json:"no_access"`
}

var l *Locales

func init() {
	l = &Locales{}
	if err := json.Unmarshal(localesJSON, l); err != nil {
		log.Fatalf("Не удалось распарсить locales.json: %v", err)
	}
}

// Get возвращает указатель на локали
func Get() *Locales {
	return l
}
