package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"docsum/internal/cache"
	"docsum/internal/chunker"
	"docsum/internal/config"
	"docsum/internal/embedding"
	"docsum/internal/extractor"
	"docsum/internal/generator"
	"docsum/internal/logger"
	"docsum/internal/retriever"
	"docsum/internal/service"
	"docsum/internal/summarizer"
	"docsum/internal/tui"
	"docsum/internal/vectorstore/pinecone"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var verbose bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docsum/config.yaml if not provided)")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.Parse()
	logger.SetVerbose(verbose)

	inputs := flag.Args()
	if len(inputs) != 1 {
		fmt.Println("Usage: docsum [--config=config.yaml] [--verbose] document.pdf")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Assemble components behind the domain interfaces
	emb, err := embedding.NewPineconeClient(embedding.Config{
		BaseURL:   cfg.Pinecone.BaseURL,
		APIKeyEnv: cfg.Pinecone.APIKeyEnv,
		Model:     cfg.Pinecone.EmbedModel,
		BatchSize: cfg.Pinecone.BatchSize,
		Dimension: cfg.Pinecone.Dimension,
		Timeout:   time.Duration(cfg.Pinecone.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("embedding client init failed: %v", err)
	}

	store, err := pinecone.NewStore(pinecone.Config{
		BaseURL:       cfg.Pinecone.BaseURL,
		APIKeyEnv:     cfg.Pinecone.APIKeyEnv,
		Dimension:     cfg.Pinecone.Dimension,
		Metric:        cfg.Pinecone.Metric,
		Cloud:         cfg.Pinecone.Cloud,
		Region:        cfg.Pinecone.Region,
		PollInterval:  time.Duration(cfg.Pinecone.PollIntervalSecs) * time.Second,
		ReadyTimeout:  time.Duration(cfg.Pinecone.ReadyTimeoutSecs) * time.Second,
		SettleTimeout: time.Duration(cfg.Pinecone.SettleTimeoutSecs) * time.Second,
		Timeout:       time.Duration(cfg.Pinecone.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("vector store init failed: %v", err)
	}

	gen, err := generator.NewGeminiClient(generator.Config{
		BaseURL:   cfg.Gemini.BaseURL,
		APIKeyEnv: cfg.Gemini.APIKeyEnv,
		Model:     cfg.Gemini.Model,
		Timeout:   time.Duration(cfg.Gemini.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("generator init failed: %v", err)
	}

	pipeline := service.NewPipeline(
		extractor.NewPDFExtractor(),
		chunker.NewRecursiveSplitter(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap),
		emb,
		store,
		retriever.New(emb, store, cfg.Retriever.TopK),
		summarizer.NewLLMSummarizer(gen),
		cache.NewFileCache(cfg.Cache.Path),
	)

	docPath := inputs[0]
	data, err := os.ReadFile(docPath)
	if err != nil {
		log.Fatalf("failed to read %s: %v", docPath, err)
	}
	if _, err := pipeline.ProcessDocument(context.Background(), data); err != nil {
		log.Fatalf("failed to process document: %v", err)
	}

	m := tui.New(pipeline, docPath)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
