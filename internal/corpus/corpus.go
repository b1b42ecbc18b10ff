// Package corpus moves documentation between disk layouts: raw documents
// into chunk files, and chunk files into a persisted vector store.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"ragfaq/internal/domain"
	"ragfaq/internal/vectorstore"
)

// MetadataFile is the chunk index written next to the chunk text files.
const MetadataFile = "metadata.json"

// ChunkDocuments splits every raw document matching pattern in rawDir and writes
// one <id>.txt per chunk plus metadata.json into chunkDir.
func ChunkDocuments(rawDir, pattern, chunkDir string, chunker domain.Chunker, log *logrus.Entry) ([]domain.Metadata, error) {
	paths, err := filepath.Glob(filepath.Join(rawDir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no documents matching %s in %s", pattern, rawDir)
	}
	if err := os.MkdirAll(chunkDir, 0o755); err != nil {
		return nil, fmt.Errorf("create chunk dir: %w", err)
	}

	var records []domain.Metadata
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		base := filepath.Base(p)
		doc := domain.Document{
			ID:      strings.TrimSuffix(base, filepath.Ext(base)),
			Path:    p,
			Content: string(data),
		}
		chunks, err := chunker.Chunk(doc)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", p, err)
		}
		for _, ch := range chunks {
			if err := os.WriteFile(filepath.Join(chunkDir, ch.ID+".txt"), []byte(ch.Text), 0o644); err != nil {
				return nil, fmt.Errorf("write chunk %s: %w", ch.ID, err)
			}
			records = append(records, ch.Metadata)
		}
		log.WithFields(logrus.Fields{"document": p, "chunks": len(chunks)}).Debug("document chunked")
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode chunk metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(chunkDir, MetadataFile), data, 0o644); err != nil {
		return nil, fmt.Errorf("write chunk metadata: %w", err)
	}
	log.WithFields(logrus.Fields{"documents": len(paths), "chunks": len(records)}).Info("corpus chunked")
	return records, nil
}

// LoadChunks reads metadata.json and the chunk text files it names.
// Records whose text file is missing are skipped with a warning.
func LoadChunks(chunkDir string, log *logrus.Entry) ([]string, []domain.Metadata, error) {
	data, err := os.ReadFile(filepath.Join(chunkDir, MetadataFile))
	if err != nil {
		return nil, nil, fmt.Errorf("read chunk metadata: %w", err)
	}
	var records []domain.Metadata
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, nil, fmt.Errorf("decode chunk metadata: %w", err)
	}

	texts := make([]string, 0, len(records))
	metas := make([]domain.Metadata, 0, len(records))
	for _, rec := range records {
		path := filepath.Join(chunkDir, rec.ID+".txt")
		content, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.WithField("path", path).Warn("chunk file not found, skipping")
				continue
			}
			return nil, nil, err
		}
		texts = append(texts, string(content))
		metas = append(metas, rec)
	}
	return texts, metas, nil
}

// BuildStore indexes every chunk in chunkDir and saves the store to storePath.
func BuildStore(chunkDir, storePath string, log *logrus.Entry) (*vectorstore.Store, error) {
	texts, metas, err := LoadChunks(chunkDir, log)
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("no chunk texts in %s: %w", chunkDir, domain.ErrInvalidArgument)
	}
	log.WithField("chunks", len(texts)).Info("creating TF-IDF embeddings")
	store := vectorstore.New()
	if err := store.AddTexts(texts, metas); err != nil {
		return nil, err
	}
	if err := store.Save(storePath); err != nil {
		return nil, fmt.Errorf("save vector store: %w", err)
	}
	log.WithFields(logrus.Fields{"path": storePath, "entries": store.Len()}).Info("vector store saved")
	return store, nil
}
