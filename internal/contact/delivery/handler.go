package delivery

import (
	"net/http"
	"strconv"

	authdelivery "rolodex-backend/internal/auth/delivery"
	contactdto "rolodex-backend/internal/contact/dto"
	"rolodex-backend/internal/contact/repository"

	"github.com/gin-gonic/gin"
)

type PersonHandler struct {
	personRepo      repository.PersonRepository
	interactionRepo repository.InteractionRepository
}

func NewPersonHandler(personRepo repository.PersonRepository, interactionRepo repository.InteractionRepository) *PersonHandler {
	return &PersonHandler{
		personRepo:      personRepo,
		interactionRepo: interactionRepo,
	}
}

func (h *PersonHandler) ListPersons(c *gin.Context) {
	user := authdelivery.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	limit := 50
	offset := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	persons, err := h.personRepo.ListByOwner(user.ID, c.Query("q"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	total, err := h.personRepo.CountByOwner(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, contactdto.PersonsResponse{
		Persons: persons,
		Limit:   limit,
		Offset:  offset,
		Total:   total,
	})
}

func (h *PersonHandler) GetPerson(c *gin.Context) {
	user := authdelivery.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	person, err := h.personRepo.FindByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if person == nil || person.OwnerUserID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return
	}

	interactions, err := h.interactionRepo.ListByOwnerAndPerson(user.ID, person.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, contactdto.PersonDetailResponse{
		Person:       person,
		Interactions: interactions,
	})
}

func (h *PersonHandler) ToggleStar(c *gin.Context) {
	user := authdelivery.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	person, err := h.personRepo.FindByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if person == nil || person.OwnerUserID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return
	}

	person.Starred = !person.Starred
	if err := h.personRepo.Update(person); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, person)
}
