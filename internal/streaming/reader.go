// Package streaming открывает источники аудио: локальные файлы и HTTP потоки
package streaming

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultBufferSize размер буфера чтения по умолчанию
const DefaultBufferSize = 256 * 1024

// Reader представляет буферизованный HTTP поток
type Reader struct {
	reader *bufio.Reader
	resp   *http.Response
}

// client без общего таймаута: потоки живут столько же, сколько играет трек
var client = &http.Client{
	Transport: &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		IdleConnTimeout:       300 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		ExpectContinueTimeout: 1 * time.Second,
	},
}

// IsRemote сообщает, указывает ли источник на HTTP ресурс
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Open открывает источник для декодирования.
// Если stream == false, данные целиком читаются в память, и результат поддерживает io.Seeker.
func Open(ctx context.Context, source string, stream bool, bufferSize int) (io.ReadCloser, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	var rc io.ReadCloser
	if IsRemote(source) {
		r, err := NewReader(ctx, source, bufferSize)
		if err != nil {
			return nil, err
		}
		rc = r
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("ошибка открытия файла: %w", err)
		}
		if stream {
			// Файл уже поддерживает Seek, буферизация не нужна
			return f, nil
		}
		rc = f
	}

	if stream {
		return rc, nil
	}

	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения источника: %w", err)
	}
	return nopSeekCloser{bytes.NewReader(data)}, nil
}

// NewReader создает потоковый ридер для HTTP источника
func NewReader(ctx context.Context, url string, bufferSize int) (*Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("Accept-Encoding", "identity") // Сжатие мешает декодеру
	req.Header.Set("Range", "bytes=0-")
	req.Header.Set("User-Agent", "go-tunebox/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, fmt.Errorf("ошибка HTTP: %s", resp.Status)
	}

	return &Reader{
		reader: bufio.NewReaderSize(resp.Body, bufferSize),
		resp:   resp,
	}, nil
}

// Read реализует io.Reader
func (sr *Reader) Read(p []byte) (n int, err error) {
	return sr.reader.Read(p)
}

// Close закрывает соединение
func (sr *Reader) Close() error {
	return sr.resp.Body.Close()
}

type nopSeekCloser struct {
	*bytes.Reader
}

func (nopSeekCloser) Close() error { return nil }
