package services

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventphoto-backend/internal/models"
	"eventphoto-backend/internal/postgres"
)

// maxImportFileSize caps a single photo inside an import archive.
const maxImportFileSize = 50 << 20

// ImportService loads a whole event tree from one zip archive. Entry paths
// encode the hierarchy as event/flow/speech/member/photo.jpg; intermediate
// entities are created on first sight and reused for later entries.
type ImportService struct {
	db    *postgres.Client
	media *MediaService
}

func NewImportService(db *postgres.Client, media *MediaService) *ImportService {
	return &ImportService{db: db, media: media}
}

// ImportReport summarizes one archive import.
type ImportReport struct {
	Events   int `json:"events"`
	Flows    int `json:"flows"`
	Speeches int `json:"speeches"`
	Members  int `json:"members"`
	Media    int `json:"media"`
	Skipped  int `json:"skipped"`
}

func (s *ImportService) ProcessZip(ctx context.Context, data []byte) (*ImportReport, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip archive", ErrInvalidArgument)
	}

	// Sort entries so photos land in a stable position order regardless of
	// how the archive was packed.
	files := make([]*zip.File, 0, len(reader.File))
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	report := &ImportReport{}
	events := map[string]uuid.UUID{}
	flows := map[string]uuid.UUID{}
	speeches := map[string]uuid.UUID{}
	members := map[string]uuid.UUID{}

	for _, f := range files {
		parts := strings.Split(path.Clean(f.Name), "/")
		if len(parts) != 5 {
			report.Skipped++
			continue
		}
		eventName, flowName, speechName, memberName := parts[0], parts[1], parts[2], parts[3]
		filename := parts[4]

		eventID, ok := events[eventName]
		if !ok {
			event, err := s.db.CreateEvent(ctx, &models.Event{
				ID:   uuid.New(),
				Name: eventName,
				Date: time.Now(),
			})
			if err != nil {
				return nil, err
			}
			eventID = event.ID
			events[eventName] = eventID
			report.Events++
		}

		flowKey := eventName + "/" + flowName
		flowID, ok := flows[flowKey]
		if !ok {
			flow, err := s.db.CreateFlow(ctx, &models.Flow{
				ID:      uuid.New(),
				EventID: eventID,
				Name:    flowName,
				From:    time.Now(),
				To:      time.Now(),
			})
			if err != nil {
				return nil, err
			}
			flowID = flow.ID
			flows[flowKey] = flowID
			report.Flows++
		}

		speechKey := flowKey + "/" + speechName
		speechID, ok := speeches[speechKey]
		if !ok {
			speech, err := s.db.CreateSpeech(ctx, &models.Speech{
				ID:     uuid.New(),
				FlowID: flowID,
				Name:   speechName,
			})
			if err != nil {
				return nil, err
			}
			speechID = speech.ID
			speeches[speechKey] = speechID
			report.Speeches++
		}

		memberKey := speechKey + "/" + memberName
		memberID, ok := members[memberKey]
		if !ok {
			member, err := s.db.CreateMember(ctx, &models.Member{
				ID:       uuid.New(),
				SpeechID: speechID,
				Name:     sql.NullString{String: memberName, Valid: memberName != ""},
			})
			if err != nil {
				return nil, err
			}
			memberID = member.ID
			members[memberKey] = memberID
			report.Members++
		}

		data, err := readZipFile(f)
		if err != nil {
			log.Printf("import: skipping %s: %v", f.Name, err)
			report.Skipped++
			continue
		}

		if _, err := s.media.AddMedia(ctx, memberID, filename, data); err != nil {
			log.Printf("import: failed to add %s: %v", f.Name, err)
			report.Skipped++
			continue
		}
		report.Media++
	}

	return report, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxImportFileSize {
		return nil, fmt.Errorf("file too large")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(io.LimitReader(rc, maxImportFileSize))
}
