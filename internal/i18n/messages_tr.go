package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.Turkish

	message.SetString(lang, "status.pending", "Bekliyor")
	message.SetString(lang, "status.in-progress", "Çalışılıyor")
	message.SetString(lang, "status.done", "Tamamlandı")

	message.SetString(lang, "priority.low", "Düşük")
	message.SetString(lang, "priority.normal", "Normal")
	message.SetString(lang, "priority.high", "Yüksek")

	message.SetString(lang, "filter.all", "Tüm Görevler")
	message.SetString(lang, "filter.assigned", "Bana Atanan Görevler")
	message.SetString(lang, "filter.created", "Oluşturduğum Görevler")

	message.SetString(lang, KeyTitle, "Görev Takip Sistemi")
	message.SetString(lang, KeyListEmpty, "Henüz görev bulunmuyor.")
	message.SetString(lang, KeyLoginFailed, "Giriş başarısız")
	message.SetString(lang, KeyLoginError, "Giriş yapılırken hata oluştu")
	message.SetString(lang, KeyLoggedOut, "Çıkış yapıldı")
	message.SetString(lang, KeyWelcome, "%s olarak giriş yapıldı (%s)")
	message.SetString(lang, KeyLabelAssigned, "Atanan: %s")
	message.SetString(lang, KeyLabelCreated, "Oluşturan: %s")
	message.SetString(lang, KeyLabelUpdated, "Son Güncelleyen: %s")
	message.SetString(lang, KeyLabelPriority, "Öncelik: %s")
	message.SetString(lang, KeyUnknown, "Bilinmiyor")
	message.SetString(lang, KeyActionStatus, "durum")
	message.SetString(lang, KeyActionDelete, "sil")
	message.SetString(lang, KeyNewTask, "Yeni görev: %s")
	message.SetString(lang, KeyNewTaskGeneric, "Yeni görev bildirimi")
	message.SetString(lang, KeyRosterEmpty, "Atanabilecek kullanıcı yok.")
	message.SetString(lang, KeyWatching, "Yeni görevler dinleniyor. Durdurmak için Ctrl-C.")
}
