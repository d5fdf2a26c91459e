package telegram

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"study-proxy/api/internal/llm"
	"study-proxy/api/internal/service"
)

type photo struct {
	messageID int
	data      []byte
}

type photoBatch struct {
	ChatID int64
	Key    string // "grp:<mediaGroupID>" | "chat:<chatID>"

	mu     sync.Mutex
	photos []photo
	timer  *time.Timer
	done   bool
}

// acceptPhoto collects photos per media group and processes the batch once
// no new photo arrived for the debounce period.
func (r *Router) acceptPhoto(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	ph := msg.Photo[len(msg.Photo)-1] // самое большое разрешение
	url, err := r.Bot.GetFileDirectURL(ph.FileID)
	if err != nil {
		r.sendError(cid, "Download", err)
		return
	}
	dl := r.Download
	if dl == nil {
		dl = download
	}
	data, err := dl(url)
	if err != nil {
		r.sendError(cid, "Download", err)
		return
	}

	key := fmt.Sprintf("chat:%d", cid)
	if msg.MediaGroupID != "" {
		key = "grp:" + msg.MediaGroupID
	}
	debounce := r.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	r.addPhoto(key, cid, photo{messageID: msg.MessageID, data: data}, debounce)
}

// addPhoto appends to the open batch for key. A batch already claimed by
// processBatch is dropped from the map and a fresh one is started.
func (r *Router) addPhoto(key string, cid int64, p photo, debounce time.Duration) {
	for {
		bi, _ := r.batches.LoadOrStore(key, &photoBatch{ChatID: cid, Key: key})
		b := bi.(*photoBatch)

		b.mu.Lock()
		if b.done {
			b.mu.Unlock()
			r.batches.CompareAndDelete(key, b)
			continue
		}
		b.photos = append(b.photos, p)
		if b.timer != nil {
			b.timer.Stop()
		}
		b.timer = time.AfterFunc(debounce, func() { r.processBatch(b) })
		b.mu.Unlock()
		return
	}
}

func (r *Router) processBatch(b *photoBatch) {
	b.mu.Lock()
	if b.done {
		b.mu.Unlock()
		return
	}
	b.done = true
	if b.timer != nil {
		b.timer.Stop()
	}
	r.batches.CompareAndDelete(b.Key, b)
	photos := append([]photo(nil), b.photos...)
	cid := b.ChatID
	b.mu.Unlock()

	sort.SliceStable(photos, func(i, j int) bool { return photos[i].messageID < photos[j].messageID })

	switch len(photos) {
	case 1:
		r.questionsFromImage(cid, photos[0].data)
	case 2:
		r.evaluate(cid, photos[0].data, photos[1].data)
	default:
		r.send(cid, fmt.Sprintf("Got %d photos. Send one syllabus photo, or an album of two: the question, then the answer.", len(photos)))
	}
}

func (r *Router) questionsFromImage(cid int64, img []byte) {
	ctx, cancel := r.reqContext(cid)
	defer cancel()
	r.typing(cid)
	out, err := r.Gen.Questions(ctx, r.engineFor(cid), service.QuestionsInput{Image: &llm.Image{Data: img}})
	if err != nil {
		r.sendError(cid, "Questions", err)
		return
	}
	r.send(cid, formatQuestions(out))
}

func (r *Router) evaluate(cid int64, question, answer []byte) {
	ctx, cancel := r.reqContext(cid)
	defer cancel()
	r.typing(cid)
	out, err := r.Gen.Evaluate(ctx, r.engineFor(cid), service.EvaluateInput{
		Question: llm.Image{Data: question},
		Answer:   llm.Image{Data: answer},
	})
	if err != nil {
		r.sendError(cid, "Evaluation", err)
		return
	}
	r.send(cid, formatEvaluation(out))
}

func download(url string) ([]byte, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(io.LimitReader(resp.Body, 20<<20))
}

var httpClient = &http.Client{Timeout: 60 * time.Second}
