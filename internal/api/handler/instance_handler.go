package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/madeeasy/coursehub/internal/core/domain"
	"github.com/madeeasy/coursehub/internal/core/ports"
)

// InstanceHandler exposes the course-instance service's HTTP surface.
type InstanceHandler struct {
	instanceService ports.InstanceService
}

func NewInstanceHandler(instanceService ports.InstanceService) *InstanceHandler {
	return &InstanceHandler{instanceService: instanceService}
}

func (h *InstanceHandler) Create(c echo.Context) error {
	var req instanceRequest
	if err := c.Bind(&req); err != nil {
		return domain.E(domain.KindValidation, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	instance, err := h.instanceService.Create(c.Request().Context(), ports.InstanceInput{
		Year:     req.Year,
		Semester: req.Semester,
		CourseID: req.CourseID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toInstanceResponse(instance))
}

func (h *InstanceHandler) GetAll(c echo.Context) error {
	instances, err := h.instanceService.GetAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toInstanceResponses(instances))
}

func (h *InstanceHandler) GetByYearSemester(c echo.Context) error {
	year, semester, err := termParams(c)
	if err != nil {
		return err
	}

	instances, err := h.instanceService.GetByYearSemester(c.Request().Context(), year, semester)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toInstanceResponses(instances))
}

func (h *InstanceHandler) GetByID(c echo.Context) error {
	year, semester, err := termParams(c)
	if err != nil {
		return err
	}

	instance, err := h.instanceService.GetByID(c.Request().Context(), year, semester, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toInstanceResponse(instance))
}

// DeleteByCourse is the cascade target the course service calls before it
// removes the course row.
func (h *InstanceHandler) DeleteByCourse(c echo.Context) error {
	courseID := c.Param("courseId")

	deleted, err := h.instanceService.DeleteByCourse(c.Request().Context(), courseID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{
		Message: fmt.Sprintf("deleted %d course instances for courseId %s", deleted, courseID),
	})
}

func termParams(c echo.Context) (year, semester int, err error) {
	year, err = strconv.Atoi(c.Param("year"))
	if err != nil {
		return 0, 0, domain.E(domain.KindValidation, "year must be a number")
	}
	semester, err = strconv.Atoi(c.Param("semester"))
	if err != nil {
		return 0, 0, domain.E(domain.KindValidation, "semester must be a number")
	}
	return year, semester, nil
}
