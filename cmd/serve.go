package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/johentsch/scoresync/constants"
	"github.com/johentsch/scoresync/db"
	"github.com/johentsch/scoresync/model"
)

var serveFlags struct {
	dir      string
	addr     string
	metadata bool
}

func init() {
	f := serveCmd.Flags()
	f.StringVarP(&serveFlags.dir, "dir", "d", constants.GetOutputDir(), "directory with alignment artifacts")
	f.StringVar(&serveFlags.addr, "addr", ":8080", "listen address")
	f.BoolVar(&serveFlags.metadata, "metadata", false, "annotate recordings with database metadata")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves alignment artifacts",
	Long:  `Serves the artifacts of an output directory over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		serve()
	},
}

type recordingOverview struct {
	Name      string                   `json:"name"`
	Artifacts []string                 `json:"artifacts"`
	Metadata  *model.RecordingMetadata `json:"metadata,omitempty"`
}

func listRecordings() ([]recordingOverview, error) {
	entries, err := os.ReadDir(serveFlags.dir)
	if err != nil {
		return nil, err
	}

	byName := make(map[string][]string)
	var order []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		filename := e.Name()
		if !strings.HasSuffix(filename, ".notes.tsv") {
			continue
		}
		name := strings.TrimSuffix(filename, ".notes.tsv")
		if _, ok := byName[name]; !ok {
			order = append(order, name)
		}
		byName[name] = append(byName[name], filename)
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".notes.tsv") {
			continue
		}
		for _, name := range order {
			if strings.HasPrefix(e.Name(), name+".") || strings.HasPrefix(e.Name(), name+"_") {
				byName[name] = append(byName[name], e.Name())
				break
			}
		}
	}

	res := make([]recordingOverview, 0, len(order))
	for _, name := range order {
		res = append(res, recordingOverview{Name: name, Artifacts: byName[name]})
	}

	if serveFlags.metadata {
		for i := 0; i < len(res); i += 10 {
			end := i + 10
			if end > len(res) {
				end = len(res)
			}
			var filenames []string
			for _, r := range res[i:end] {
				filenames = append(filenames, r.Name)
			}
			metas, err := db.GetRecordingMetadatas(filenames)
			if err != nil {
				return nil, err
			}
			for j := i; j < end; j++ {
				if m, ok := metas[res[j].Name]; ok {
					meta := m
					res[j].Metadata = &meta
				}
			}
		}
	}
	return res, nil
}

func handleRecordings(w http.ResponseWriter, r *http.Request) {
	res, err := listRecordings()
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

func handleArtifact(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	filename := filepath.Base(vars["filename"])
	path := filepath.Join(serveFlags.dir, filename)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "no such artifact", 404)
		return
	}
	http.ServeFile(w, r, path)
}

func serve() {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/recordings", handleRecordings).Methods("GET")
	router.HandleFunc("/artifacts/{filename}", handleArtifact).Methods("GET")

	handler := cors.Default().Handler(router)
	fmt.Printf("Serving %v on %v\n", serveFlags.dir, serveFlags.addr)
	log.Fatal(http.ListenAndServe(serveFlags.addr, handler))
}
