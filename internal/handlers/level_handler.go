package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ShadowYIG/hctf-backend/internal/models"
	"github.com/ShadowYIG/hctf-backend/internal/services"
	"github.com/ShadowYIG/hctf-backend/internal/validation"
)

type LevelHandler struct {
	levels  services.LevelService
	auditor services.Auditor
	loc     *time.Location
}

// NewLevelHandler reads zone-less release times in loc.
func NewLevelHandler(levels services.LevelService, auditor services.Auditor, loc *time.Location) *LevelHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &LevelHandler{
		levels:  levels,
		auditor: auditor,
		loc:     loc,
	}
}

func (h *LevelHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r)
	if !ok {
		return
	}

	v := validation.New(in, h.loc).
		Required("categoryId", "categoryId is required").
		Integer("categoryId", "categoryId must be an integer").
		Required("levelName", "levelName is required").
		String("levelName", "levelName must be a string").
		Required("releaseTime", "releaseTime is required").
		Date("releaseTime", "releaseTime must be a valid date")
	if failValidation(w, v) {
		return
	}

	categoryID, ok := in.Uint("categoryId")
	if !ok {
		writeError(w, http.StatusNotFound, models.CodeCategoryNotFound, "Category not found")
		return
	}
	releaseTime, _ := in.Time("releaseTime", h.loc)

	level, category, err := h.levels.Create(r.Context(), &models.CreateLevelRequest{
		CategoryID:  categoryID,
		LevelName:   in.String("levelName"),
		ReleaseTime: releaseTime,
	})
	if err != nil {
		audit(r.Context(), h.auditor, services.ActionLevelCreate, nil, err, "")
		writeServiceError(w, "CreateLevel", err)
		return
	}

	log.Printf("[CreateLevel] Level %q (%d) created under category %q", level.LevelName, level.LevelID, category.CategoryName)
	audit(r.Context(), h.auditor, services.ActionLevelCreate, []uint{level.LevelID}, nil,
		fmt.Sprintf("level %q created under category %q", level.LevelName, category.CategoryName))
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(level))
}

func (h *LevelHandler) Info(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r)
	if !ok {
		return
	}

	v := validation.New(in, h.loc).
		Required("levelId", "levelId is required").
		Integer("levelId", "levelId must be an integer")
	if failValidation(w, v) {
		return
	}

	levelID, ok := in.Uint("levelId")
	if !ok {
		writeError(w, http.StatusNotFound, models.CodeLevelNotFound, "Level not found")
		return
	}

	level, err := h.levels.GetByID(r.Context(), levelID)
	if err != nil {
		writeServiceError(w, "LevelInfo", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(level))
}

func (h *LevelHandler) SetName(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r)
	if !ok {
		return
	}

	v := validation.New(in, h.loc).
		Required("levelId", "levelId is required").
		Integer("levelId", "levelId must be an integer").
		Required("levelName", "levelName is required").
		String("levelName", "levelName must be a string")
	if failValidation(w, v) {
		return
	}

	levelID, ok := h.levelID(w, r, in, services.ActionLevelSetName)
	if !ok {
		return
	}

	level, err := h.levels.SetName(r.Context(), levelID, in.String("levelName"))
	if err != nil {
		audit(r.Context(), h.auditor, services.ActionLevelSetName, []uint{levelID}, err, "")
		writeServiceError(w, "SetLevelName", err)
		return
	}

	log.Printf("[SetLevelName] Level %d renamed to %q", level.LevelID, level.LevelName)
	audit(r.Context(), h.auditor, services.ActionLevelSetName, []uint{levelID}, nil, "renamed to "+level.LevelName)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(level))
}

func (h *LevelHandler) SetReleaseTime(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r)
	if !ok {
		return
	}

	v := validation.New(in, h.loc).
		Required("levelId", "levelId is required").
		Integer("levelId", "levelId must be an integer").
		Required("releaseTime", "releaseTime is required").
		Date("releaseTime", "releaseTime must be a valid date")
	if failValidation(w, v) {
		return
	}

	levelID, ok := h.levelID(w, r, in, services.ActionLevelSetReleaseTime)
	if !ok {
		return
	}
	releaseTime, _ := in.Time("releaseTime", h.loc)

	level, err := h.levels.SetReleaseTime(r.Context(), levelID, releaseTime)
	if err != nil {
		audit(r.Context(), h.auditor, services.ActionLevelSetReleaseTime, []uint{levelID}, err, "")
		writeServiceError(w, "SetLevelReleaseTime", err)
		return
	}

	released := level.ReleaseTime.UTC().Format(models.DateTimeLayout)
	log.Printf("[SetLevelReleaseTime] Level %d now opens at %s UTC", level.LevelID, released)
	audit(r.Context(), h.auditor, services.ActionLevelSetReleaseTime, []uint{levelID}, nil, "release time "+released)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(level))
}

func (h *LevelHandler) SetRules(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r)
	if !ok {
		return
	}

	v := validation.New(in, h.loc).
		Required("levelId", "levelId is required").
		Integer("levelId", "levelId must be an integer").
		Required("rules", "rules is required").
		JSON("rules", "rules must be valid JSON")
	if failValidation(w, v) {
		return
	}

	levelID, ok := h.levelID(w, r, in, services.ActionLevelSetRules)
	if !ok {
		return
	}
	rules, _ := in.RawJSON("rules")

	level, err := h.levels.SetRules(r.Context(), levelID, rules)
	if err != nil {
		audit(r.Context(), h.auditor, services.ActionLevelSetRules, []uint{levelID}, err, "")
		writeServiceError(w, "SetLevelRules", err)
		return
	}

	log.Printf("[SetLevelRules] Rules of level %d replaced", level.LevelID)
	audit(r.Context(), h.auditor, services.ActionLevelSetRules, []uint{levelID}, nil, "")
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(level))
}

func (h *LevelHandler) DeleteLevel(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r)
	if !ok {
		return
	}

	v := validation.New(in, h.loc).
		Required("levelId", "levelId is required")
	if failValidation(w, v) {
		return
	}

	levelID, ok := h.levelID(w, r, in, services.ActionLevelDelete)
	if !ok {
		return
	}

	if err := h.levels.Delete(r.Context(), levelID); err != nil {
		audit(r.Context(), h.auditor, services.ActionLevelDelete, []uint{levelID}, err, "")
		writeServiceError(w, "DeleteLevel", err)
		return
	}

	log.Printf("[DeleteLevel] Level %d deleted", levelID)
	audit(r.Context(), h.auditor, services.ActionLevelDelete, []uint{levelID}, nil, "")
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(nil))
}

// levelID resolves levelId. A value that cannot name a row answers level_not_found.
func (h *LevelHandler) levelID(w http.ResponseWriter, r *http.Request, in validation.Input, action string) (uint, bool) {
	levelID, ok := in.Uint("levelId")
	if !ok {
		audit(r.Context(), h.auditor, action, nil, services.ErrLevelNotFound, "")
		writeError(w, http.StatusNotFound, models.CodeLevelNotFound, "Level not found")
		return 0, false
	}
	return levelID, true
}
