package emulator_test

import (
	"bytes"
	"context"
	"errors"
	"strings"

	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ezrec/tinyvm/cpu"
	"github.com/ezrec/tinyvm/emulator"
)

var _ = Describe("Emulator", func() {
	var (
		mockCtrl *gomock.Controller
		clock    *MockClock
		emu      *emulator.Emulator
		output   *bytes.Buffer
	)

	load := func(lines ...string) {
		Expect(emu.Assemble(strings.NewReader(strings.Join(lines, "\n")))).To(Succeed())
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		clock = NewMockClock(mockCtrl)

		emu = emulator.NewEmulator()
		emu.Clock = clock

		output = &bytes.Buffer{}
		emu.Tape.Output = output
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should refuse to tick before a program is loaded", func() {
		_, err := emu.Tick()
		Expect(err).To(MatchError(emulator.ErrNotLoaded))
	})

	It("should wait through the clock", func() {
		gomock.InOrder(
			clock.EXPECT().Wait(uint16(5)),
			clock.EXPECT().Wait(uint16(3)),
			clock.EXPECT().Wait(uint16(3)),
		)

		load(
			"wait 5",
			"ldb 3",
			"lda SYS_WAIT",
			"syscall",
			"int INT_WAIT",
			"halt",
		)

		Expect(emu.Run(context.Background(), 100)).To(Succeed())
		Expect(emu.Status()).To(Equal(cpu.STATUS_HALTED))
	})

	It("should never wait in a program without delays", func() {
		load("lda 10", "ldb 3", "add", "printa", "halt")

		Expect(emu.Run(context.Background(), 100)).To(Succeed())
		Expect(output.String()).To(Equal("13"))
	})

	It("should stop at the instruction limit", func() {
		load("loop: jmp loop")

		Expect(emu.Run(context.Background(), 50)).To(MatchError(emulator.ErrLimit))
		Expect(emu.Cpu.Ticks).To(Equal(50))
		Expect(emu.Status()).To(Equal(cpu.STATUS_RUNNING))
	})

	It("should stop when the context is cancelled", func() {
		load("loop: jmp loop")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Expect(emu.Run(ctx, 0)).To(MatchError(context.Canceled))
		Expect(emu.Cpu.Ticks).To(Equal(0))
	})

	It("should locate runtime faults in the source", func() {
		load(
			"nop",
			"; fault ahead",
			"nop",
			".db 0x0b",
		)

		err := emu.Run(context.Background(), 100)
		Expect(err).To(MatchError(cpu.ErrOpcodeDecode))

		var rt *emulator.ErrRuntime
		Expect(errors.As(err, &rt)).To(BeTrue())
		Expect(rt.LineNo).To(Equal(4))
		Expect(rt.Pc).To(Equal(uint16(0x9002)))
		Expect(emu.Status()).To(Equal(cpu.STATUS_FAULTED))
	})

	It("should read and write through the console", func() {
		console := NewMockConsole(mockCtrl)

		load("ina", "printc", "ina", "printa", "halt")
		emu.Cpu.Console = console

		gomock.InOrder(
			console.EXPECT().Read().Return(byte('q'), true),
			console.EXPECT().Print("q").Return(nil),
			console.EXPECT().Read().Return(byte(0), false),
			console.EXPECT().Print("65535").Return(nil),
		)

		Expect(emu.Run(context.Background(), 100)).To(Succeed())
	})

	It("should not load a program with assembly errors", func() {
		err := emu.Assemble(strings.NewReader("lda 1\njmp nowhere\n"))
		Expect(err).To(MatchError(cpu.ErrLabelMissing("nowhere")))
		Expect(emu.Loaded()).To(BeFalse())
	})
})
