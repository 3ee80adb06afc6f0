package mem

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Storage", func() {
	var storage *Storage

	BeforeEach(func() {
		storage = NewStorage(1 * MB)
	})

	It("should read zeros from untouched memory", func() {
		data, err := storage.Read(0x100, 4)

		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte{0, 0, 0, 0}))
	})

	It("should read what was written", func() {
		Expect(storage.Write(0x40, []byte{1, 2, 3, 4})).To(Succeed())

		data, err := storage.Read(0x40, 4)

		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte{1, 2, 3, 4}))
	})

	It("should write and read across units", func() {
		payload := make([]byte, 64)
		for i := range payload {
			payload[i] = byte(i)
		}

		Expect(storage.Write(4*KB-32, payload)).To(Succeed())

		data, err := storage.Read(4*KB-32, 64)

		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal(payload))
	})

	It("should return a copy on read", func() {
		Expect(storage.Write(0, []byte{9})).To(Succeed())

		data, _ := storage.Read(0, 1)
		data[0] = 7

		again, _ := storage.Read(0, 1)
		Expect(again).To(Equal([]byte{9}))
	})

	It("should refuse out of range accesses", func() {
		_, err := storage.Read(1*MB-2, 4)
		Expect(err).To(MatchError(ErrAddressOutOfRange))

		err = storage.Write(1*MB, []byte{1})
		Expect(err).To(MatchError(ErrAddressOutOfRange))
	})
})
