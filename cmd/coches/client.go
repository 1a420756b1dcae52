package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type client struct {
	BaseURL   string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
	Out       io.Writer
}

func (c *client) do(method, path string, body []byte, headers map[string]string) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

// check convierte respuestas no-2xx en error con el code/message de la API.
func check(op string, status int, body []byte) error {
	if status/100 == 2 {
		return nil
	}
	var e struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if json.Unmarshal(body, &e) == nil && e.Code != "" {
		if e.Detail != "" {
			return fmt.Errorf("%s fallo: status=%d code=%s: %s (%s)", op, status, e.Code, e.Message, e.Detail)
		}
		return fmt.Errorf("%s fallo: status=%d code=%s: %s", op, status, e.Code, e.Message)
	}
	return fmt.Errorf("%s fallo: status=%d body=%s", op, status, string(body))
}

type car struct {
	ID        int64  `json:"id"`
	Marca     string `json:"marca"`
	Potencia  int    `json:"potencia"`
	Encendido bool   `json:"encendido"`
	Version   int64  `json:"version"`
}

func (c *client) print(body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Fprintln(c.Out, string(p))
			return
		}
	}

	var list []car
	if json.Unmarshal(body, &list) == nil {
		for _, cc := range list {
			c.printCar(cc)
		}
		return
	}
	var one car
	if json.Unmarshal(body, &one) == nil && one.ID != 0 {
		c.printCar(one)
		return
	}
	fmt.Fprintln(c.Out, strings.TrimSpace(string(body)))
}

func (c *client) printCar(cc car) {
	fmt.Fprintf(c.Out, "%d\t%s\tpotencia=%d\tencendido=%t\tversion=%d\n",
		cc.ID, cc.Marca, cc.Potencia, cc.Encendido, cc.Version)
}
