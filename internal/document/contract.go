package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTemplateAPIURL = "https://rest.apitemplate.io"

var (
	ErrContractNotConfigured = errors.New("contract service credentials are not configured")
	// ErrUpstreamUnreachable covers connection failures and timeouts
	// talking to the templating service.
	ErrUpstreamUnreachable = errors.New("could not reach the PDF templating service")
	ErrNoDownloadURL       = errors.New("PDF templating service did not return a download URL")
)

// UpstreamError is a non-2xx answer from the templating service.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("templating service returned %d: %s", e.StatusCode, e.Message)
}

// ContractRequest carries the employment contract form. Address parts
// are composed server side before being sent to the template.
type ContractRequest struct {
	CompanyName          string `json:"companyName" validate:"required"`
	CompanyCNPJ          string `json:"companyCnpj" validate:"required"`
	CompanyStreet        string `json:"companyStreet" validate:"required"`
	CompanyNumber        string `json:"companyNumber" validate:"required"`
	CompanyDistrict      string `json:"companyDistrict" validate:"required"`
	CompanyCity          string `json:"companyCity" validate:"required"`
	CompanyState         string `json:"companyState" validate:"required,len=2"`
	CompanyZip           string `json:"companyZip" validate:"required"`
	HRRepresentative     string `json:"hrRepresentative" validate:"required"`
	HRRepresentativeCPF  string `json:"hrRepresentativeCpf" validate:"required"`
	EmployeeName         string `json:"employeeName" validate:"required"`
	EmployeeNationality  string `json:"employeeNationality" validate:"required"`
	EmployeeMaritalState string `json:"employeeMaritalStatus" validate:"required"`
	EmployeeCPF          string `json:"employeeCpf" validate:"required"`
	EmployeeIdentity     string `json:"employeeIdentity" validate:"required"`
	EmployeeStreet       string `json:"employeeStreet" validate:"required"`
	EmployeeNumber       string `json:"employeeNumber" validate:"required"`
	EmployeeComplement   string `json:"employeeComplement"`
	EmployeeDistrict     string `json:"employeeDistrict" validate:"required"`
	EmployeeCity         string `json:"employeeCity" validate:"required"`
	EmployeeState        string `json:"employeeState" validate:"required,len=2"`
	EmployeeZip          string `json:"employeeZip" validate:"required"`
	Position             string `json:"position" validate:"required"`
	Department           string `json:"department" validate:"required"`
	GrossSalary          string `json:"grossSalary" validate:"required"`
	SalaryInWords        string `json:"salaryInWords" validate:"required"`
	HireDate             string `json:"hireDate" validate:"required"`
	HireCity             string `json:"hireCity" validate:"required"`
}

// ContractResponse is returned to the caller on success.
type ContractResponse struct {
	DownloadURL string `json:"download_url"`
}

// ContractClient calls APITemplate.io v2 to render a contract PDF from
// a template stored on their side.
type ContractClient struct {
	baseURL    string
	apiKey     string
	templateID string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewContractClient(baseURL, apiKey, templateID string, timeout time.Duration, logger *slog.Logger) *ContractClient {
	if baseURL == "" {
		baseURL = defaultTemplateAPIURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ContractClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		templateID: templateID,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Generate renders the contract and returns the download URL of the
// resulting PDF.
func (c *ContractClient) Generate(ctx context.Context, req *ContractRequest) (string, error) {
	if c.apiKey == "" || c.templateID == "" {
		return "", ErrContractNotConfigured
	}

	payload := buildTemplatePayload(req)

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/v2/create-pdf?template_id=%s", c.baseURL, url.QueryEscape(c.templateID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("templating service unreachable", "error", err)
		return "", ErrUpstreamUnreachable
	}
	defer resp.Body.Close()

	var result struct {
		DownloadURL string `json:"download_url"`
		Message     string `json:"message"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := result.Message
		if decodeErr != nil || message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		c.logger.Error("templating service error", "status", resp.StatusCode, "message", message)
		return "", &UpstreamError{StatusCode: resp.StatusCode, Message: message}
	}
	if decodeErr != nil {
		return "", ErrNoDownloadURL
	}
	if result.DownloadURL == "" {
		c.logger.Error("templating service answered without download_url")
		return "", ErrNoDownloadURL
	}

	c.logger.Info("contract generated", "employee", req.EmployeeName)
	return result.DownloadURL, nil
}

// buildTemplatePayload maps the request onto the placeholder names of
// the stored contract template. The keys are fixed by the template and
// must not change.
func buildTemplatePayload(req *ContractRequest) map[string]string {
	companyAddress := fmt.Sprintf("%s, %s, %s - %s/%s, CEP: %s",
		req.CompanyStreet, req.CompanyNumber, req.CompanyDistrict,
		req.CompanyCity, req.CompanyState, req.CompanyZip)

	complement := ""
	if req.EmployeeComplement != "" {
		complement = ", " + req.EmployeeComplement
	}
	employeeAddress := fmt.Sprintf("%s, %s%s, %s - %s/%s, CEP: %s",
		req.EmployeeStreet, req.EmployeeNumber, complement, req.EmployeeDistrict,
		req.EmployeeCity, req.EmployeeState, req.EmployeeZip)

	return map[string]string{
		"Razao_Social":         req.CompanyName,
		"endereco_filial":      companyAddress,
		"CNPJ":                 req.CompanyCNPJ,
		"representante_RH":     req.HRRepresentative,
		"CPF":                  req.HRRepresentativeCPF,
		"nome_completo":        req.EmployeeName,
		"nacionalidade":        req.EmployeeNationality,
		"estado_civil":         req.EmployeeMaritalState,
		"cpf":                  req.EmployeeCPF,
		"identidade":           req.EmployeeIdentity,
		"endereco_colaborador": employeeAddress,
		"cargo":                req.Position,
		"setor":                req.Department,
		"salario_bruto":        formatSalaryBR(req.GrossSalary),
		"valor_extenso":        req.SalaryInWords,
		"data_admissao":        formatDateBR(req.HireDate),
		"Cidade":               req.CompanyCity,
		"UF":                   req.CompanyState,
		"cidade_admissao":      req.HireCity,
	}
}

// formatDateBR rewrites YYYY-MM-DD as DD/MM/YYYY. Unparseable input is
// passed through unchanged.
func formatDateBR(value string) string {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return value
	}
	return parsed.Format("02/01/2006")
}

// formatSalaryBR rewrites a decimal amount in Brazilian notation, with
// dots grouping thousands and a comma before the cents. Unparseable
// input is passed through unchanged.
func formatSalaryBR(value string) string {
	parts := strings.SplitN(value, ".", 2)

	whole, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return value
	}

	cents := "00"
	if len(parts) == 2 {
		cents = (parts[1] + "00")[:2]
	}

	grouped := groupThousands(whole)
	return grouped + "," + cents
}

func groupThousands(n int64) string {
	digits := strconv.FormatInt(n, 10)
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
