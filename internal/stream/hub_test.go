package stream_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/integrators"
	"github.com/san-kum/nbodysim/internal/sim"
	"github.com/san-kum/nbodysim/internal/stream"
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func bodies() *body.Set {
	return body.NewSet(
		body.Body{Name: "sun", Mass: 1, Radius: 0.00465, Display: body.Display{Color: [3]uint8{255, 200, 0}}},
		body.Body{Name: "earth", Mass: 3.003e-6, Position: body.Vec{1, 0, 0}, Velocity: body.Vec{0, 0.0172, 0}},
	)
}

var _ = Describe("Hub", func() {
	var (
		set    *body.Set
		hub    *stream.Hub
		server *httptest.Server
	)

	dial := func() *websocket.Conn {
		url := "ws" + strings.TrimPrefix(server.URL, "http")
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		Expect(err).NotTo(HaveOccurred())
		return conn
	}

	readMessage := func(conn *websocket.Conn) envelope {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var env envelope
		Expect(conn.ReadJSON(&env)).To(Succeed())
		return env
	}

	BeforeEach(func() {
		set = bodies()
		hub = stream.NewHub(set)
		server = httptest.NewServer(hub)
	})

	AfterEach(func() {
		hub.Close()
		server.Close()
	})

	It("greets new clients with the body list", func() {
		conn := dial()
		defer conn.Close()

		env := readMessage(conn)
		Expect(env.Type).To(Equal("system"))

		var hello stream.Hello
		Expect(json.Unmarshal(env.Data, &hello)).To(Succeed())
		Expect(hello.Bodies).To(Equal([]string{"sun", "earth"}))
		Expect(hello.Colors[0]).To(Equal([3]uint8{255, 200, 0}))
		Expect(hello.Radii[0]).To(Equal(0.00465))
	})

	It("broadcasts frames to every client", func() {
		a, b := dial(), dial()
		defer a.Close()
		defer b.Close()
		readMessage(a)
		readMessage(b)
		Eventually(hub.Clients).Should(Equal(2))

		Expect(hub.OnStep(1.5, set)).To(Succeed())

		for _, conn := range []*websocket.Conn{a, b} {
			env := readMessage(conn)
			Expect(env.Type).To(Equal("frame"))

			var frame stream.Frame
			Expect(json.Unmarshal(env.Data, &frame)).To(Succeed())
			Expect(frame.Time).To(Equal(1.5))
			Expect(frame.Bodies).To(HaveLen(2))
			Expect(frame.Bodies[1].Name).To(Equal("earth"))
			Expect(frame.Bodies[1].Position).To(Equal([3]float64{1, 0, 0}))
			Expect(frame.Bodies[1].Velocity).To(Equal([3]float64{0, 0.0172, 0}))
		}
	})

	It("forgets clients that disconnect", func() {
		conn := dial()
		readMessage(conn)
		Eventually(hub.Clients).Should(Equal(1))

		conn.Close()
		Eventually(hub.Clients).Should(BeZero())
		Expect(hub.OnStep(1, set)).To(Succeed())
	})

	It("streams a running simulation", func() {
		conn := dial()
		defer conn.Close()
		readMessage(conn)
		Eventually(hub.Clients).Should(Equal(1))

		s, err := sim.FromConfig(set, sim.Config{Dt: 1, EndTime: 5, Integrator: integrators.KindVerlet})
		Expect(err).NotTo(HaveOccurred())
		s.AddObserver(hub)
		_, err = s.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		var last stream.Frame
		for i := 0; i < 5; i++ {
			env := readMessage(conn)
			Expect(env.Type).To(Equal("frame"))
			Expect(json.Unmarshal(env.Data, &last)).To(Succeed())
		}
		Expect(last.Time).To(BeNumerically("~", 5, 1e-9))
	})

	Context("with a broadcast interval", func() {
		BeforeEach(func() {
			hub.Close()
			server.Close()
			hub = stream.NewHub(set, stream.WithEvery(3))
			server = httptest.NewServer(hub)
		})

		It("only sends every n-th tick", func() {
			conn := dial()
			defer conn.Close()
			readMessage(conn)
			Eventually(hub.Clients).Should(Equal(1))

			for tick := 1; tick <= 6; tick++ {
				Expect(hub.OnStep(float64(tick), set)).To(Succeed())
			}

			var frame stream.Frame
			Expect(json.Unmarshal(readMessage(conn).Data, &frame)).To(Succeed())
			Expect(frame.Time).To(Equal(3.0))
			Expect(json.Unmarshal(readMessage(conn).Data, &frame)).To(Succeed())
			Expect(frame.Time).To(Equal(6.0))
		})
	})

	It("disconnects clients on close", func() {
		conn := dial()
		defer conn.Close()
		readMessage(conn)
		Eventually(hub.Clients).Should(Equal(1))

		hub.Close()
		Expect(hub.Clients()).To(BeZero())

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, err := conn.ReadMessage()
		Expect(err).To(HaveOccurred())
	})
})
