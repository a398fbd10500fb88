package patients

import (
	"bytes"
	"caresync-service/internal/app/config"
	"caresync-service/internal/app/contracts"
	"caresync-service/internal/pkg/constvars"
	"caresync-service/internal/pkg/exceptions"
	"caresync-service/internal/pkg/fhir_dto"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	patientFhirClientInstance contracts.PatientFhirClient
	oncePatientFhirClient     sync.Once
)

// patientFhirClient talks to the FHIR server's Patient endpoint. It is
// stateless: one request out, one response back, no retries. Callers own
// the decision of what to do with a failure.
type patientFhirClient struct {
	BaseUrl    string
	HTTPClient *http.Client
	Signer     contracts.RequestSigner
	Limiter    *rate.Limiter
	Log        *zap.Logger
}

func NewPatientFhirClient(internalConfig *config.InternalConfig, signer contracts.RequestSigner, logger *zap.Logger) contracts.PatientFhirClient {
	oncePatientFhirClient.Do(func() {
		rps := internalConfig.App.OutboundRequestsPerSecond
		if rps <= 0 {
			rps = 1
		}
		client := &patientFhirClient{
			BaseUrl: fmt.Sprintf("%s/%s", internalConfig.FHIR.BaseUrl, constvars.ResourcePatient),
			HTTPClient: &http.Client{
				Timeout: time.Duration(internalConfig.App.SyncTimeoutInSeconds) * time.Second,
			},
			Signer:  signer,
			Limiter: rate.NewLimiter(rate.Limit(rps), rps),
			Log:     logger,
		}
		patientFhirClientInstance = client
	})
	return patientFhirClientInstance
}

// send applies the outbound rate limit, signs the request and performs it.
// Any failure before a status line counts as a transport failure.
func (c *patientFhirClient) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, exceptions.ErrFhirTransport(err)
	}

	token, err := c.Signer.CreateToken(ctx, constvars.ResourcePatient)
	if err != nil {
		return nil, exceptions.ErrFhirSignRequest(err)
	}
	req.Header.Set(constvars.HeaderAuthorization, constvars.AuthorizationBearerPrefix+token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, exceptions.ErrFhirTransport(err)
	}
	return resp, nil
}

func (c *patientFhirClient) CreatePatient(ctx context.Context, request *fhir_dto.Patient) (*fhir_dto.Patient, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	c.Log.Info("patientFhirClient.CreatePatient called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
	)

	requestJSON, err := json.Marshal(request)
	if err != nil {
		c.Log.Error("patientFhirClient.CreatePatient error marshaling JSON",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrCannotMarshalJSON(err)
	}

	req, err := http.NewRequestWithContext(ctx, constvars.MethodPost, c.BaseUrl, bytes.NewBuffer(requestJSON))
	if err != nil {
		c.Log.Error("patientFhirClient.CreatePatient error creating HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrCreateHTTPRequest(err)
	}
	req.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationFHIRJSON)
	req.Header.Set(constvars.HeaderPrefer, constvars.PreferReturnRepresentation)

	resp, err := c.send(ctx, req)
	if err != nil {
		c.Log.Error("patientFhirClient.CreatePatient error sending HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < constvars.StatusOK || resp.StatusCode >= constvars.StatusBadRequest {
		bodyBytes, _ := io.ReadAll(resp.Body)
		remoteErr := exceptions.ErrFhirCreateResource(constvars.ResourcePatient, resp.StatusCode, bodyBytes)
		c.Log.Error("patientFhirClient.CreatePatient FHIR server rejected request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Int(constvars.LoggingUpstreamStatusKey, resp.StatusCode),
			zap.Error(remoteErr),
		)
		return nil, remoteErr
	}

	patientFhir := new(fhir_dto.Patient)
	err = json.NewDecoder(resp.Body).Decode(&patientFhir)
	if err != nil {
		c.Log.Error("patientFhirClient.CreatePatient error decoding response",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrFhirDecodeResource(err, constvars.ResourcePatient)
	}

	c.Log.Info("patientFhirClient.CreatePatient succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, patientFhir.ID),
	)
	return patientFhir, nil
}

func (c *patientFhirClient) UpdatePatient(ctx context.Context, request *fhir_dto.Patient) (*fhir_dto.Patient, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	c.Log.Info("patientFhirClient.UpdatePatient called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, request.ID),
	)

	requestJSON, err := json.Marshal(request)
	if err != nil {
		c.Log.Error("patientFhirClient.UpdatePatient error marshaling JSON",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrCannotMarshalJSON(err)
	}

	req, err := http.NewRequestWithContext(ctx, constvars.MethodPut, fmt.Sprintf("%s/%s", c.BaseUrl, request.ID), bytes.NewBuffer(requestJSON))
	if err != nil {
		c.Log.Error("patientFhirClient.UpdatePatient error creating HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrCreateHTTPRequest(err)
	}
	req.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationFHIRJSON)
	req.Header.Set(constvars.HeaderPrefer, constvars.PreferReturnRepresentation)

	resp, err := c.send(ctx, req)
	if err != nil {
		c.Log.Error("patientFhirClient.UpdatePatient error sending HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < constvars.StatusOK || resp.StatusCode >= constvars.StatusBadRequest {
		bodyBytes, _ := io.ReadAll(resp.Body)
		remoteErr := exceptions.ErrFhirUpdateResource(constvars.ResourcePatient, resp.StatusCode, bodyBytes)
		c.Log.Error("patientFhirClient.UpdatePatient FHIR server rejected request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Int(constvars.LoggingUpstreamStatusKey, resp.StatusCode),
			zap.Error(remoteErr),
		)
		return nil, remoteErr
	}

	patientFhir := new(fhir_dto.Patient)
	err = json.NewDecoder(resp.Body).Decode(&patientFhir)
	if err != nil {
		c.Log.Error("patientFhirClient.UpdatePatient error decoding response",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrFhirDecodeResource(err, constvars.ResourcePatient)
	}

	c.Log.Info("patientFhirClient.UpdatePatient succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, patientFhir.ID),
	)
	return patientFhir, nil
}

func (c *patientFhirClient) FindPatientByID(ctx context.Context, patientID string) (*fhir_dto.Patient, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	c.Log.Info("patientFhirClient.FindPatientByID called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, patientID),
	)

	req, err := http.NewRequestWithContext(ctx, constvars.MethodGet, fmt.Sprintf("%s/%s", c.BaseUrl, url.PathEscape(patientID)), nil)
	if err != nil {
		c.Log.Error("patientFhirClient.FindPatientByID error creating HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrCreateHTTPRequest(err)
	}
	req.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationFHIRJSON)

	resp, err := c.send(ctx, req)
	if err != nil {
		c.Log.Error("patientFhirClient.FindPatientByID error sending HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != constvars.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		remoteErr := exceptions.ErrFhirGetResource(constvars.ResourcePatient, resp.StatusCode, bodyBytes)
		c.Log.Error("patientFhirClient.FindPatientByID FHIR server rejected request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Int(constvars.LoggingUpstreamStatusKey, resp.StatusCode),
			zap.Error(remoteErr),
		)
		return nil, remoteErr
	}

	patientFhir := new(fhir_dto.Patient)
	err = json.NewDecoder(resp.Body).Decode(&patientFhir)
	if err != nil {
		c.Log.Error("patientFhirClient.FindPatientByID error decoding response",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrFhirDecodeResource(err, constvars.ResourcePatient)
	}

	c.Log.Info("patientFhirClient.FindPatientByID succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, patientFhir.ID),
	)
	return patientFhir, nil
}

func (c *patientFhirClient) FindPatientByFamilyName(ctx context.Context, familyName string) ([]fhir_dto.Patient, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	c.Log.Info("patientFhirClient.FindPatientByFamilyName called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
	)

	req, err := http.NewRequestWithContext(ctx, constvars.MethodGet,
		fmt.Sprintf("%s?%s=%s", c.BaseUrl, constvars.FhirSearchParamFamily, url.QueryEscape(familyName)), nil)
	if err != nil {
		c.Log.Error("patientFhirClient.FindPatientByFamilyName error creating HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrCreateHTTPRequest(err)
	}
	req.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationFHIRJSON)

	resp, err := c.send(ctx, req)
	if err != nil {
		c.Log.Error("patientFhirClient.FindPatientByFamilyName error sending HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != constvars.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		remoteErr := exceptions.ErrFhirSearchResource(constvars.ResourcePatient, resp.StatusCode, bodyBytes)
		c.Log.Error("patientFhirClient.FindPatientByFamilyName FHIR server rejected request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Int(constvars.LoggingUpstreamStatusKey, resp.StatusCode),
			zap.Error(remoteErr),
		)
		return nil, remoteErr
	}

	var bundle fhir_dto.FHIRBundle
	err = json.NewDecoder(resp.Body).Decode(&bundle)
	if err != nil {
		c.Log.Error("patientFhirClient.FindPatientByFamilyName error decoding response",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrFhirDecodeResource(err, constvars.ResourceBundle)
	}

	patients := make([]fhir_dto.Patient, 0, len(bundle.Entry))
	for _, entry := range bundle.Entry {
		var patient fhir_dto.Patient
		if err := json.Unmarshal(entry.Resource, &patient); err != nil {
			return nil, exceptions.ErrFhirDecodeResource(err, constvars.ResourcePatient)
		}
		// Search bundles may interleave OperationOutcome entries.
		if patient.ResourceType != constvars.ResourcePatient {
			continue
		}
		patients = append(patients, patient)
	}

	c.Log.Info("patientFhirClient.FindPatientByFamilyName succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Int(constvars.LoggingPatientCountKey, len(patients)),
	)
	return patients, nil
}
