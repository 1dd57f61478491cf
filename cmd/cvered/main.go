// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Command cvered serves the CVERE toolchain over a small JSON API:
// assemble, disassemble, and cycle-capped simulation.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/ezrec/cvere/cpu"
	"github.com/ezrec/cvere/emulator"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/api/health", healthHandler)
	http.HandleFunc("/api/assemble", assembleHandler)
	http.HandleFunc("/api/disassemble", disassembleHandler)
	http.HandleFunc("/api/simulate", simulateHandler)

	handler := corsMiddleware(http.DefaultServeMux)

	log.Printf("cvered: listening on port %v", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "cvered",
	})
}

func assembleHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Source string `json:"source"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	asm := &cpu.Assembler{}
	for key, value := range emulator.NewEmulator().Defines() {
		asm.Predefine(key, value)
	}

	words, err := asm.Parse(strings.NewReader(req.Source))
	if err != nil {
		json.NewEncoder(w).Encode(map[string]any{
			"error": err.Error(),
		})
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"machineCode": words,
		"labels":      asm.Label,
	})
}

func disassembleHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		MachineCode []uint16 `json:"machineCode"`
		Address     uint16   `json:"address"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	lines := []string{}
	address := req.Address
	for _, word := range req.MachineCode {
		lines = append(lines, cpu.Disassemble(address, word))
		address += 2
	}

	json.NewEncoder(w).Encode(map[string]any{
		"instructions": lines,
	})
}

// vmState is the JSON view of the machine after a simulation.
type vmState struct {
	Registers [16]uint16 `json:"registers"`
	Pc        uint16     `json:"pc"`
	Sp        uint16     `json:"sp"`
	Lr        uint16     `json:"lr"`
	Sr        uint16     `json:"sr"`
	Ring      string     `json:"ring"`
	Cycles    uint64     `json:"cycles"`
	Halted    bool       `json:"halted"`
	Console   string     `json:"console"`
}

func simulateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		MachineCode []uint16 `json:"machineCode"`
		MaxCycles   uint64   `json:"maxCycles"`
		Input       string   `json:"input"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.MaxCycles == 0 {
		req.MaxCycles = emulator.DEFAULT_CYCLE_LIMIT
	}

	emu := emulator.NewEmulator()
	emu.Program = req.MachineCode
	emu.Reset()
	emu.Console.QueueInput(req.Input)

	cycles, err := emu.Run(req.MaxCycles)

	state := vmState{
		Pc:      emu.Vm.Regs.Pc,
		Sp:      emu.Vm.Regs.Sp,
		Lr:      emu.Vm.Regs.Lr,
		Sr:      emu.Vm.Regs.Sr,
		Ring:    emu.Vm.Regs.Ring.String(),
		Cycles:  cycles,
		Halted:  emu.Vm.Halted,
		Console: emu.Console.Output(),
	}
	for n := range uint8(16) {
		state.Registers[n] = emu.Vm.Regs.ReadGP(n)
	}

	resp := map[string]any{
		"finalState": state,
	}
	if err != nil {
		resp["error"] = err.Error()
	}

	json.NewEncoder(w).Encode(resp)
}
