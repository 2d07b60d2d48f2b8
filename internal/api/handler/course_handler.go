package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/madeeasy/coursehub/internal/core/domain"
	"github.com/madeeasy/coursehub/internal/core/ports"
)

// CourseHandler exposes the course service's HTTP surface.
type CourseHandler struct {
	courseService ports.CourseService
}

func NewCourseHandler(courseService ports.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

func (h *CourseHandler) Create(c echo.Context) error {
	var req courseRequest
	if err := c.Bind(&req); err != nil {
		return domain.E(domain.KindValidation, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	course, err := h.courseService.Create(c.Request().Context(), ports.CourseInput{
		Title:       req.Title,
		CourseCode:  req.CourseCode,
		Description: req.Description,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toCourseResponse(course))
}

func (h *CourseHandler) GetAll(c echo.Context) error {
	courses, err := h.courseService.GetAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCourseResponses(courses))
}

func (h *CourseHandler) GetByID(c echo.Context) error {
	course, err := h.courseService.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCourseResponse(course))
}

func (h *CourseHandler) GetByCode(c echo.Context) error {
	course, err := h.courseService.GetByCode(c.Request().Context(), c.Param("courseCode"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCourseResponse(course))
}

// Delete runs the cascade: dependent instances first, then the course row.
func (h *CourseHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if err := h.courseService.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{
		Message: fmt.Sprintf("course with id %s has been successfully deleted", id),
	})
}
