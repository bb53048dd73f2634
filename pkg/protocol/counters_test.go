package protocol

import "testing"

func TestParseCountersTerse(t *testing.T) {
	c, ok := ParseCounters("PC[308] PrC[7] C1[10] C2[21] C3[34] C4[45] //EOL")
	if !ok {
		t.Fatal("expected ok=true")
	}
	want := Counters{Product: 308, Print: 7, Custom: [4]int64{10, 21, 34, 45}}
	if c != want {
		t.Errorf("got %+v, want %+v", c, want)
	}
}

func TestParseCountersVerbose_S3(t *testing.T) {
	resp := "Product Count:308\r\nPrint Count:7\r\nCounter 1:10\r\nCounter 2:21\r\nCounter 3:34\r\nCounter 4:45\r\n//EOL\r\n"
	c, ok := ParseCounters(resp)
	if !ok {
		t.Fatal("expected ok=true")
	}
	want := Counters{Product: 308, Print: 7, Custom: [4]int64{10, 21, 34, 45}}
	if c != want {
		t.Errorf("got %+v, want %+v", c, want)
	}
}

func TestParseCountersAltDialect_S3Variant(t *testing.T) {
	resp := "Product:308\r\nPrint:7\r\nCustom1:10\r\nCustom2:21\r\nCustom3:34\r\nCustom4:45\r\n//EOL\r\n"
	c, ok := ParseCounters(resp)
	if !ok {
		t.Fatal("expected ok=true")
	}
	want := Counters{Product: 308, Print: 7, Custom: [4]int64{10, 21, 34, 45}}
	if c != want {
		t.Errorf("got %+v, want %+v", c, want)
	}
}

func TestParseCountersCommaFallback(t *testing.T) {
	c, ok := ParseCounters("308,7,10,21,34,45\r\n//EOL\r\n")
	if !ok {
		t.Fatal("expected ok=true")
	}
	want := Counters{Product: 308, Print: 7, Custom: [4]int64{10, 21, 34, 45}}
	if c != want {
		t.Errorf("got %+v, want %+v", c, want)
	}
}

func TestParseCountersFewerThanTwoNumbersFails(t *testing.T) {
	_, ok := ParseCounters("Product Count:308\r\n//EOL\r\n")
	if ok {
		t.Error("expected ok=false when fewer than two numbers recovered")
	}
}

func TestParseCountersNoNumbersFails(t *testing.T) {
	_, ok := ParseCounters("//EOL\r\n")
	if ok {
		t.Error("expected ok=false for response with no counters")
	}
}
