package patients

import (
	"caresync-service/internal/app/config"
	"caresync-service/internal/app/contracts"
	"caresync-service/internal/pkg/constvars"
	"caresync-service/internal/pkg/dto/requests"
	"caresync-service/internal/pkg/exceptions"
	"caresync-service/internal/pkg/utils"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PatientController struct {
	Log            *zap.Logger
	PatientUsecase contracts.PatientUsecase
	InternalConfig *config.InternalConfig
}

func NewPatientController(logger *zap.Logger, patientUsecase contracts.PatientUsecase, internalConfig *config.InternalConfig) *PatientController {
	return &PatientController{
		Log:            logger,
		PatientUsecase: patientUsecase,
		InternalConfig: internalConfig,
	}
}

func (ctrl *PatientController) CreateDraft(w http.ResponseWriter, r *http.Request) {
	request := new(requests.UpsertPatientDraft)
	err := json.NewDecoder(r.Body).Decode(&request)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	if err := utils.ValidateStruct(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrInputValidation(err))
		return
	}

	ctx, cancel := ctrl.requestContext(r)
	defer cancel()

	response, err := ctrl.PatientUsecase.CreateDraft(ctx, request)
	if err != nil {
		ctrl.respondError(w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.PatientDraftCreatedSuccess, response)
}

func (ctrl *PatientController) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	localID := chi.URLParam(r, constvars.URLParamLocalID)
	if strings.TrimSpace(localID) == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamValidation(nil, constvars.URLParamLocalID))
		return
	}

	request := new(requests.UpsertPatientDraft)
	err := json.NewDecoder(r.Body).Decode(&request)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	if err := utils.ValidateStruct(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrInputValidation(err))
		return
	}

	ctx, cancel := ctrl.requestContext(r)
	defer cancel()

	response, err := ctrl.PatientUsecase.UpdateDraft(ctx, localID, request)
	if err != nil {
		ctrl.respondError(w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.PatientDraftUpdatedSuccess, response)
}

func (ctrl *PatientController) GetRecord(w http.ResponseWriter, r *http.Request) {
	localID := chi.URLParam(r, constvars.URLParamLocalID)
	if strings.TrimSpace(localID) == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamValidation(nil, constvars.URLParamLocalID))
		return
	}

	ctx, cancel := ctrl.requestContext(r)
	defer cancel()

	response, err := ctrl.PatientUsecase.GetRecord(ctx, localID)
	if err != nil {
		ctrl.respondError(w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.PatientRecordGetSuccess, response)
}

func (ctrl *PatientController) Upload(w http.ResponseWriter, r *http.Request) {
	localID := chi.URLParam(r, constvars.URLParamLocalID)
	if strings.TrimSpace(localID) == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamValidation(nil, constvars.URLParamLocalID))
		return
	}

	ctx, cancel := ctrl.requestContext(r)
	defer cancel()

	response, err := ctrl.PatientUsecase.Upload(ctx, localID)
	if err != nil {
		ctrl.respondError(w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.PatientUploadSuccess, response)
}

func (ctrl *PatientController) Download(w http.ResponseWriter, r *http.Request) {
	localID := chi.URLParam(r, constvars.URLParamLocalID)
	if strings.TrimSpace(localID) == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamValidation(nil, constvars.URLParamLocalID))
		return
	}

	ctx, cancel := ctrl.requestContext(r)
	defer cancel()

	response, err := ctrl.PatientUsecase.Download(ctx, localID)
	if err != nil {
		ctrl.respondError(w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.PatientDownloadSuccess, response)
}

func (ctrl *PatientController) Search(w http.ResponseWriter, r *http.Request) {
	familyName := r.URL.Query().Get(constvars.FhirSearchParamFamily)
	if strings.TrimSpace(familyName) == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamValidation(nil, constvars.FhirSearchParamFamily))
		return
	}

	ctx, cancel := ctrl.requestContext(r)
	defer cancel()

	response, err := ctrl.PatientUsecase.SearchByFamilyName(ctx, familyName)
	if err != nil {
		ctrl.respondError(w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.PatientSearchSuccess, response)
}

func (ctrl *PatientController) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	localID := chi.URLParam(r, constvars.URLParamLocalID)
	if strings.TrimSpace(localID) == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamValidation(nil, constvars.URLParamLocalID))
		return
	}

	maxUploadSize := ctrl.InternalConfig.App.PhotoMaxUploadSizeInMB << 20
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseMultipartForm(err))
		return
	}

	file, fileHeader, err := r.FormFile(constvars.MultipartFormFieldPhoto)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrPhotoValidation(err))
		return
	}
	defer file.Close()

	if fileHeader.Size > maxUploadSize {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrPhotoValidation(fmt.Errorf("photo exceeds %dMB limit", ctrl.InternalConfig.App.PhotoMaxUploadSizeInMB)))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrPhotoValidation(err))
		return
	}

	ctx, cancel := ctrl.requestContext(r)
	defer cancel()

	response, err := ctrl.PatientUsecase.AttachPhoto(ctx, localID, data, fileHeader.Filename, fileHeader.Header.Get(constvars.HeaderContentType))
	if err != nil {
		ctrl.respondError(w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.PatientPhotoUploadedSuccess, response)
}

// requestContext derives the usecase deadline from the request context, so
// request-scoped values like the request id survive into usecase logs.
func (ctrl *PatientController) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	timeout := time.Duration(ctrl.InternalConfig.App.SyncTimeoutInSeconds) * time.Second
	return context.WithTimeout(r.Context(), timeout)
}

func (ctrl *PatientController) respondError(w http.ResponseWriter, err error) {
	if err == context.DeadlineExceeded {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrServerDeadlineExceeded(err))
		return
	}
	utils.BuildErrorResponse(ctrl.Log, w, err)
}
