package http

import (
	"encoding/json"
	"log"
	"net/http"

	"geohis-quiz-service/internal/app"
	"geohis-quiz-service/internal/domain"

	"github.com/gorilla/websocket"
)

// WSHandler drives one single-player game session per websocket connection.
// Messages are handled synchronously in arrival order, so a connection can
// never write two answer records for the same question.
type WSHandler struct {
	banks    app.BankRepository
	rankings *app.RankingStore
	upgrader websocket.Upgrader

	// newSession is swappable so tests can inject a seeded sampler.
	newSession func() *app.Session
}

func NewWSHandler(banks app.BankRepository, rankings *app.RankingStore) *WSHandler {
	return &WSHandler{
		banks:    banks,
		rankings: rankings,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		newSession: app.NewSession,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type configurePayload struct {
	Initials string `json:"initials"`
	Avatar   string `json:"avatar"`
}

// questionView is the sanitized question sent to clients: no correct option,
// no accepted variants, no ground-truth categories.
type questionView struct {
	ID         string              `json:"id"`
	Type       domain.QuestionType `json:"type"`
	Difficulty domain.Difficulty   `json:"difficulty"`
	Prompt     string              `json:"question"`
	Options    []string            `json:"options,omitempty"`
	BlankCount int                 `json:"blankCount,omitempty"`
	Left       []string            `json:"left,omitempty"`
	Right      []rightItemView     `json:"right,omitempty"`
	Categories []string            `json:"categories,omitempty"`
	Items      []classifyItemView  `json:"items,omitempty"`
}

// rightItemView carries the original pairing index the client echoes back in
// its final ordering. Display shuffling is the presentation layer's job.
type rightItemView struct {
	OriginalIndex int    `json:"originalIndex"`
	Text          string `json:"text"`
}

type classifyItemView struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

type questionPayload struct {
	Index    int          `json:"index"`
	Total    int          `json:"total"`
	Streak   int          `json:"streak"`
	Question questionView `json:"question"`
}

type feedbackPayload struct {
	QuestionID  string `json:"questionId"`
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
	Streak      int    `json:"streak"`
	MaxStreak   int    `json:"maxStreak"`
	Answered    int    `json:"answered"`
	Total       int    `json:"total"`
}

type resultsPayload struct {
	Score     domain.Score         `json:"score"`
	MaxStreak int                  `json:"maxStreak"`
	Entry     *domain.RankingEntry `json:"entry"`
	Position  int                  `json:"position"`
}

type statePayload struct {
	State app.State `json:"state"`
}

// ServeWS upgrades the request and runs the session loop until the client
// disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	topicID := r.URL.Query().Get("topicId")
	if topicID == "" {
		http.Error(w, "missing topicId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := h.newSession()
	var results *resultsPayload

	send := func(msgType string, payload any) bool {
		if err := conn.WriteJSON(outboundMessage[any]{Type: msgType, Payload: payload}); err != nil {
			log.Printf("ws write error: %v", err)
			return false
		}
		return true
	}
	sendErr := func(message string) bool {
		return send("error", errorPayload{Message: message})
	}
	sendQuestion := func() bool {
		question, ok := session.CurrentQuestion()
		if !ok {
			return sendErr("no active question")
		}
		return send("question", questionPayload{
			Index:    session.CurrentIndex(),
			Total:    session.QuestionCount(),
			Streak:   session.Streak(),
			Question: sanitizeQuestion(question),
		})
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		switch inbound.Type {
		case "configure":
			var payload configurePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				if !sendErr("invalid configure payload") {
					return
				}
				continue
			}
			if err := session.ConfigurePlayer(payload.Initials, payload.Avatar); err != nil {
				if !sendErr(err.Error()) {
					return
				}
				continue
			}
			if !send("configured", session.Player()) {
				return
			}

		case "start":
			bank, err := h.banks.GetBank(r.Context(), topicID)
			if err != nil {
				if !sendErr(err.Error()) {
					return
				}
				continue
			}
			if err := session.StartGame(bank.Questions); err != nil {
				if !sendErr(err.Error()) {
					return
				}
				continue
			}
			results = nil
			if !sendQuestion() {
				return
			}

		case "answer":
			question, ok := session.CurrentQuestion()
			if !ok {
				if !sendErr("no active question") {
					return
				}
				continue
			}
			payload, err := decodeAnswer(question.Type, inbound.Payload)
			if err != nil {
				if !sendErr("invalid answer payload") {
					return
				}
				continue
			}
			record, err := session.SubmitAnswer(payload)
			if err != nil {
				if !sendErr(err.Error()) {
					return
				}
				continue
			}
			if !send("feedback", feedbackPayload{
				QuestionID:  record.QuestionID,
				Correct:     record.IsCorrect,
				Explanation: question.Explanation,
				Streak:      session.Streak(),
				MaxStreak:   session.MaxStreak(),
				Answered:    session.CurrentIndex() + 1,
				Total:       session.QuestionCount(),
			}) {
				return
			}

		case "next":
			session.NextQuestion()
			switch session.State() {
			case app.StatePlaying:
				if !sendQuestion() {
					return
				}
			case app.StateResults:
				if results == nil {
					results = h.finishGame(r, topicID, session)
				}
				if !send("results", *results) {
					return
				}
			default:
				if !sendErr("nothing to advance") {
					return
				}
			}

		case "reset":
			session.ResetGame()
			results = nil
			if !send("reset", statePayload{State: session.State()}) {
				return
			}

		default:
			if !sendErr("unsupported message type") {
				return
			}
		}
	}
}

// finishGame saves the finished session once and resolves its rank. A failed
// save leaves Entry nil and Position -1; the score is still reported.
func (h *WSHandler) finishGame(r *http.Request, topicID string, session *app.Session) *resultsPayload {
	result := session.Result()
	entry := h.rankings.SaveRanking(r.Context(), topicID, result)
	position := -1
	if entry != nil {
		position = h.rankings.GetRankPosition(r.Context(), topicID, entry.ID)
	}
	return &resultsPayload{
		Score:     session.Score(),
		MaxStreak: session.MaxStreak(),
		Entry:     entry,
		Position:  position,
	}
}

func sanitizeQuestion(q domain.Question) questionView {
	view := questionView{
		ID:         q.ID,
		Type:       q.Type,
		Difficulty: q.Difficulty,
		Prompt:     q.Prompt,
	}
	switch q.Type {
	case domain.MultipleChoice:
		view.Options = q.Options
	case domain.FillBlanks:
		view.BlankCount = len(q.Blanks)
	case domain.Matching:
		for i, pair := range q.Pairs {
			view.Left = append(view.Left, pair.Left)
			view.Right = append(view.Right, rightItemView{OriginalIndex: i, Text: pair.Right})
		}
	case domain.Classify:
		view.Categories = q.Categories
		for _, item := range q.Items {
			view.Items = append(view.Items, classifyItemView{ID: item.ID, Text: item.Text})
		}
	}
	return view
}

func decodeAnswer(qt domain.QuestionType, raw json.RawMessage) (domain.AnswerPayload, error) {
	switch qt {
	case domain.MultipleChoice:
		var payload domain.ChoiceAnswer
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, err
		}
		return payload, nil
	case domain.TrueFalse:
		var payload domain.BoolAnswer
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, err
		}
		return payload, nil
	case domain.FillBlanks:
		var payload domain.BlanksAnswer
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, err
		}
		return payload, nil
	case domain.Matching:
		var payload domain.MatchingAnswer
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, err
		}
		return payload, nil
	case domain.Classify:
		var payload domain.ClassifyAnswer
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, err
		}
		return payload, nil
	default:
		return nil, domain.ErrUnknownQuestionType
	}
}
