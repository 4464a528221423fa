package devserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/wecare/internal/client/models"
	"github.com/dmitrijs2005/wecare/internal/client/triage"
	"github.com/dmitrijs2005/wecare/internal/common"
	"github.com/dmitrijs2005/wecare/internal/devserver/auth"
)

type credentials struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	BloodGroup string `json:"blood_group"`
}

type tokenResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	User        *models.Profile `json:"user"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		writeDetail(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	p, err := s.users.register(models.Profile{
		Username:   in.Username,
		Email:      in.Email,
		FullName:   in.FullName,
		Phone:      in.Phone,
		BloodGroup: in.BloodGroup,
	}, in.Password)
	if errors.Is(err, errUserExists) {
		writeDetail(w, http.StatusBadRequest, "Username already registered")
		return
	}
	if err != nil {
		s.log.Error(r.Context(), "register failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	s.issueToken(w, r, p, http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := s.users.authenticate(in.Username, in.Password)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	s.issueToken(w, r, p, http.StatusOK)
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request, p models.Profile, status int) {
	tok, err := auth.GenerateToken(p.ID, s.secret, s.clock.Now(), s.tokenTTL)
	if err != nil {
		s.log.Error(r.Context(), "token signing failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	writeJSON(w, status, tokenResponse{AccessToken: tok, TokenType: "bearer", User: &p})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := userIDFrom(r.Context())
	p, ok := s.users.get(id)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleConsultation assesses an uploaded submission and stores it.
func (s *Server) handleConsultation(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	symptoms := strings.TrimSpace(r.FormValue("symptoms"))
	useHistory, _ := strconv.ParseBool(r.FormValue("use_history"))

	hasImage := false
	if f, _, err := r.FormFile("image"); err == nil {
		n, _ := io.Copy(io.Discard, f)
		_ = f.Close()
		hasImage = n > 0
	}

	if symptoms == "" && !hasImage {
		writeDetail(w, http.StatusBadRequest, "Please describe your symptoms or attach an image")
		return
	}

	text := symptoms
	if text == "" {
		text = "image submission"
	}
	res := triage.Assess(text)
	res.Offline = false
	res.Response = strings.Replace(res.Response, "[Offline Mode - Basic Assessment]", "[Assessment]", 1)

	c := storedConsultation{
		Symptoms:       symptoms,
		Response:       res.Response,
		Priority:       res.Priority,
		FirstAid:       res.FirstAid,
		Specialization: res.Specialization,
		UseHistory:     useHistory,
		HasImage:       hasImage,
		CreatedAt:      s.clock.Now(),
	}
	if id, ok := userIDFrom(r.Context()); ok {
		c.UserID = &id
	}

	s.mu.Lock()
	s.nextID++
	c.ID = s.nextID
	s.consultations = append(s.consultations, c)
	s.mu.Unlock()

	id := c.ID
	res.ConsultationID = &id
	res.RecommendedDoctors = s.doctorsFor(res.Specialization)

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) doctorsFor(specialization string) []models.SuggestedDoctor {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.SuggestedDoctor{}
	for _, d := range s.reference[models.DomainDoctors] {
		if d["specialization"] != specialization {
			continue
		}
		sd := models.SuggestedDoctor{Specialization: specialization}
		sd.Name, _ = d["name"].(string)
		sd.Hospital, _ = d["hospital"].(string)
		sd.AvailableDays, _ = d["available_days"].(string)
		sd.Phone, _ = d["phone"].(string)
		if fee, ok := d["fee"].(int); ok {
			sd.Fee = float64(fee)
		}
		out = append(out, sd)
	}
	return out
}

// handleSync accepts a batch of consultations recorded while offline. The
// whole batch is rejected if any item is malformed.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var batch []models.SyncItem
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid sync payload")
		return
	}
	for i, it := range batch {
		if strings.TrimSpace(it.Symptoms) == "" {
			writeDetail(w, http.StatusUnprocessableEntity, "Item "+strconv.Itoa(i)+" has no symptoms")
			return
		}
	}

	var userID *int64
	if id, ok := userIDFrom(r.Context()); ok {
		userID = &id
	}

	s.mu.Lock()
	for _, it := range batch {
		s.nextID++
		s.consultations = append(s.consultations, storedConsultation{
			ID:             s.nextID,
			UserID:         userID,
			Symptoms:       it.Symptoms,
			Response:       it.Response,
			Priority:       it.Priority,
			FirstAid:       it.FirstAid,
			Specialization: it.Specialization,
			UseHistory:     it.UseHistory,
			Synced:         true,
			CreatedAt:      it.CreatedAt,
		})
	}
	s.syncBatches++
	s.mu.Unlock()

	s.log.Info(r.Context(), "sync batch accepted", "items", len(batch), "batch", r.Header.Get(common.BatchIDHeaderName))
	writeJSON(w, http.StatusOK, map[string]int{"synced": len(batch)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, _ := userIDFrom(r.Context())

	s.mu.Lock()
	out := []storedConsultation{}
	for _, c := range s.consultations {
		if c.UserID != nil && *c.UserID == id {
			out = append(out, c)
		}
	}
	s.mu.Unlock()

	slices.SortStableFunc(out, func(a, b storedConsultation) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	writeJSON(w, http.StatusOK, map[string]any{"consultations": out})
}

func (s *Server) handleReference(domain models.Domain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		want := r.URL.Query().Get("specialization")

		s.mu.Lock()
		rows := make([]map[string]any, 0, len(s.reference[domain]))
		for _, row := range s.reference[domain] {
			v, _ := row["specialization"].(string)
			if want != "" && !strings.EqualFold(v, want) {
				continue
			}
			rows = append(rows, row)
		}
		s.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]any{string(domain): rows})
	}
}
